package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeGuestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "kept as is", in: "Alice", want: "Alice"},
		{name: "trimmed", in: "  Bob  ", want: "Bob"},
		{name: "empty defaults", in: "", want: "Anonymous"},
		{name: "whitespace defaults", in: "   ", want: "Anonymous"},
		{name: "truncated to fifty", in: strings.Repeat("x", 80), want: strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalizeGuestName(tt.in))
		})
	}
}

func TestNormalizeGuestNameTruncatesByRunes(t *testing.T) {
	in := strings.Repeat("é", 60)
	got := normalizeGuestName(in)
	require.Equal(t, 50, len([]rune(got)))
	require.Equal(t, strings.Repeat("é", 50), got)
}
