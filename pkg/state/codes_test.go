package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCodeGenerator_Generate(t *testing.T) {
	g := NewRandomCodeGenerator()
	for i := 0; i < 1000; i++ {
		code := g.Generate()
		assert.Len(t, code, CodeLength)
		assert.True(t, IsValidCode(code), "generated invalid code %q", code)
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "ABCD", want: true},
		{code: "ZZZZ", want: true},
		{code: "abcd", want: false},
		{code: "ABC", want: false},
		{code: "ABCDE", want: false},
		{code: "AB1D", want: false},
		{code: "", want: false},
		{code: "ÄBCD", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCode(tt.code))
		})
	}
}

func TestCodeSpace(t *testing.T) {
	assert.Equal(t, 26*26*26*26, CodeSpace)
}
