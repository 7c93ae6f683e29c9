package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{156, "156"},
		{999, "999"},
		{1000, "1.0K"},
		{1050, "1.1K"},
		{1203, "1.2K"},
		{15420, "15.4K"},
		{28930, "28.9K"},
		{999949, "999.9K"},
		{1000000, "1.0M"},
		{1049999, "1.0M"},
		{1050000, "1.1M"},
		{2500000, "2.5M"},
		{123456789, "123.5M"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}
