// Package input loads and validates the paragraph records produced by the
// upstream extraction pipeline.
package input

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/fiscal-tone/internal/schemas"
	"github.com/jonathan/fiscal-tone/internal/types"
)

// LoadParagraphs reads a JSON array of paragraph records, validates it
// against the input schema, and returns the records in file order. Text
// quality is taken as given; only structure is checked.
func LoadParagraphs(path string) ([]types.Paragraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}

	if err := schemas.ValidateParagraphs(data); err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	var paragraphs []types.Paragraph
	if err := json.Unmarshal(data, &paragraphs); err != nil {
		return nil, fmt.Errorf("parsing input %s: %w", path, err)
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("input %s contains no paragraphs", path)
	}
	return paragraphs, nil
}
