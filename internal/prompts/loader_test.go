package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ClassifyParagraph(t *testing.T) {
	prompt, err := Get("classify-paragraph")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "{{.Text}}")
	assert.Contains(t, prompt, "1 al 5")
}

func TestGet_DomainContext(t *testing.T) {
	prompt, err := Get("domain-context")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Consejo Fiscal")
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestMustGet_PanicsOnUnknownKey(t *testing.T) {
	assert.Panics(t, func() { MustGet("nonexistent-key") })
}

func TestFormat_ReplacesPlaceholders(t *testing.T) {
	got := Format("score {{.Text}} now", map[string]string{"Text": "el párrafo"})
	assert.Equal(t, "score el párrafo now", got)
}

func TestFormat_LeavesUnknownPlaceholders(t *testing.T) {
	got := Format("score {{.Other}}", map[string]string{"Text": "x"})
	assert.Equal(t, "score {{.Other}}", got)
}
