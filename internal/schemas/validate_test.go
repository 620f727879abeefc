package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParagraphs_Valid(t *testing.T) {
	content := `[
		{"id": "p1", "document_id": "doc-1", "text": "El CF considera...", "date": "2021-04-12T00:00:00Z"},
		{"id": "p2", "document_id": "doc-1", "text": "La regla fiscal..."}
	]`
	assert.NoError(t, ValidateParagraphs([]byte(content)))
}

func TestValidateParagraphs_EmptyArrayIsValid(t *testing.T) {
	// Emptiness is a loader concern, not a shape concern
	assert.NoError(t, ValidateParagraphs([]byte(`[]`)))
}

func TestValidateParagraphs_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", `[{"document_id": "doc-1", "text": "x"}]`},
		{"missing document_id", `[{"id": "p1", "text": "x"}]`},
		{"missing text", `[{"id": "p1", "document_id": "doc-1"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParagraphs([]byte(tt.content))
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
			assert.NotEmpty(t, validationErr.Error())
		})
	}
}

func TestValidateParagraphs_WrongTypes(t *testing.T) {
	err := ValidateParagraphs([]byte(`[{"id": 7, "document_id": "doc-1", "text": "x"}]`))
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestValidateParagraphs_NotAnArray(t *testing.T) {
	err := ValidateParagraphs([]byte(`{"id": "p1"}`))
	assert.Error(t, err)
}

func TestValidateParagraphs_BadDate(t *testing.T) {
	err := ValidateParagraphs([]byte(`[{"id": "p1", "document_id": "doc-1", "text": "x", "date": "ayer"}]`))
	assert.Error(t, err)
}
