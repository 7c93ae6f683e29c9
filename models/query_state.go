package models

import "time"

// QueryState is the per-session state of the search box. At most one of
// Loading, Record and Error is active.
type QueryState struct {
	Input        string         `json:"input"`
	Loading      bool           `json:"loading"`
	LoadingSince time.Time      `json:"loadingSince,omitempty"`
	Record       *ProfileRecord `json:"record,omitempty"`
	Error        string         `json:"error,omitempty"`
	Generation   uint64         `json:"generation"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
