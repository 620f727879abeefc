package classify

import (
	"strings"

	"github.com/jonathan/fiscal-tone/internal/prompts"
	"github.com/jonathan/fiscal-tone/internal/types"
)

// BuildPrompt constructs the full classification prompt for a paragraph.
// The prompt wording lives in the embedded template registry; this function
// only assembles it. Including the domain context is recommended for
// accuracy but costs input tokens.
func BuildPrompt(text string, includeContext bool) string {
	instruction := prompts.MustGet("classify-paragraph")
	body := prompts.Format(instruction, map[string]string{"Text": text})

	if !includeContext {
		return body
	}
	context := prompts.MustGet("domain-context")
	return context + "\n" + body
}

// ParseScoreToken parses a service reply into a score value. The contract
// with the service is that the reply is exactly one token from the fixed
// vocabulary "1".."5"; anything else, including variants like "+3" or "03",
// is a malformed response.
func ParseScoreToken(reply string) (int, bool) {
	token := strings.TrimSpace(reply)
	if len(token) != 1 {
		return 0, false
	}
	value := int(token[0] - '0')
	if value < types.MinScore || value > types.MaxScore {
		return 0, false
	}
	return value, true
}
