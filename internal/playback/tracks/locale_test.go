package tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameLanguage(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"en", "en", true},
		{"en", "eng", true},
		{"en-US", "en", true},
		{"de", "deu", true},
		{"pt-BR", "pt-PT", true},
		{"en", "de", false},
		{"", "en", false},
		{"und", "und", true},
		{"und", "en", false},
		{"not a tag!", "en", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SameLanguage(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}
