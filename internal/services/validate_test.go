package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidText(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		min   int
		max   int
		want  string
		valid bool
	}{
		{"at minimum", "abc", 3, 100, "abc", true},
		{"below minimum", "ab", 3, 100, "", false},
		{"at maximum", strings.Repeat("x", 100), 3, 100, strings.Repeat("x", 100), true},
		{"above maximum", strings.Repeat("x", 101), 3, 100, "", false},
		{"trimmed before measuring", "  abc  ", 3, 100, "abc", true},
		{"whitespace only", "    ", 3, 100, "", false},
		{"runes not bytes", strings.Repeat("ñ", 100), 3, 100, strings.Repeat("ñ", 100), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := validText(tc.in, tc.min, tc.max)
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidCredits(t *testing.T) {
	assert.True(t, validCredits(1))
	assert.True(t, validCredits(10))
	assert.False(t, validCredits(0))
	assert.False(t, validCredits(11))
	assert.False(t, validCredits(-3))
}
