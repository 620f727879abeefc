package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	text := "El Consejo Fiscal advierte sobre el déficit."

	withContext := BuildPrompt(text, true)
	assert.Contains(t, withContext, text)

	bare := BuildPrompt(text, false)
	assert.Contains(t, bare, text)

	require.Greater(t, len(withContext), len(bare), "context block must add material")
	assert.True(t, strings.HasSuffix(withContext, bare), "context is prepended, instruction unchanged")
}

func TestParseScoreToken(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
		ok    bool
	}{
		{"plain digit", "3", 3, true},
		{"lower bound", "1", 1, true},
		{"upper bound", "5", 5, true},
		{"surrounding whitespace", "  4 \n", 4, true},
		{"below range", "0", 0, false},
		{"above range", "6", 0, false},
		{"negative", "-2", 0, false},
		{"prose", "El tono es moderado", 0, false},
		{"signed digit", "+3", 0, false},
		{"zero padded", "03", 0, false},
		{"digit with trailing prose", "3 (moderado)", 0, false},
		{"float", "3.5", 0, false},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScoreToken(tt.reply)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
