package viewer

import (
	"errors"

	"profile-viewer/catalog"
)

var (
	ErrEmptyInput     = errors.New("empty username")
	ErrNotFound       = errors.New("profile not found")
	ErrUnknownDemoKey = errors.New("unknown demo username")
)

const emptyInputMessage = "Please enter a username"

func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return emptyInputMessage
	case errors.Is(err, ErrNotFound):
		return catalog.NotFoundMessage()
	default:
		return err.Error()
	}
}
