package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "crlf collapsed to lf",
			input: "line one\r\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "bare cr collapsed to lf",
			input: "line one\rline two",
			want:  "line one\nline two",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  \n\thello world\n\n",
			want:  "hello world",
		},
		{
			name:  "whitespace only becomes empty",
			input: " \r\n \t ",
			want:  "",
		},
		{
			name:  "already normalised unchanged",
			input: "para one\n\npara two",
			want:  "para one\n\npara two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestHashContent(t *testing.T) {
	t.Run("stable for same input", func(t *testing.T) {
		assert.Equal(t, HashContent("hello"), HashContent("hello"))
	})

	t.Run("differs for different input", func(t *testing.T) {
		assert.NotEqual(t, HashContent("hello"), HashContent("hello "))
	})

	t.Run("hex encoded sha256", func(t *testing.T) {
		hash := HashContent("A. B. C.")
		assert.Len(t, hash, 64)
	})
}
