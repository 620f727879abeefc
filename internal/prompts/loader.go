// Package prompts holds the classification prompt templates. The wording
// lives in classification.json and is embedded at compile time, so prompt
// tuning never touches Go code.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed classification.json
var classificationJSON []byte

var (
	parseOnce sync.Once
	templates map[string]string
	parseErr  error
)

// Get returns the template stored under key in classification.json.
func Get(key string) (string, error) {
	parseOnce.Do(func() {
		parseErr = json.Unmarshal(classificationJSON, &templates)
	})
	if parseErr != nil {
		return "", fmt.Errorf("parsing classification templates: %w", parseErr)
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not defined in classification.json", key)
	}
	return template, nil
}

// MustGet returns the template under key, panicking when it is missing. The
// classification templates are required for the pipeline to run at all, so a
// missing key is a packaging defect, not a runtime condition.
func MustGet(key string) string {
	template, err := Get(key)
	if err != nil {
		panic(err)
	}
	return template
}

// Format substitutes {{.Key}} placeholders with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{.%s}}", key), value)
	}
	return result
}
