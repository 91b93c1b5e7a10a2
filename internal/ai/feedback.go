package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

// FeedbackJSONSchema is the contract a model response must satisfy. The
// three core lists are required; missingSkills and overallRating are optional
// so that a model omitting them still parses.
const FeedbackJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["strengths", "weaknesses", "suggestions"],
  "properties": {
    "strengths":     {"type": "array", "items": {"type": "string"}},
    "weaknesses":    {"type": "array", "items": {"type": "string"}},
    "suggestions":   {"type": "array", "items": {"type": "string"}},
    "missingSkills": {"type": "array", "items": {"type": "string"}},
    "overallRating": {"type": "number", "minimum": 0, "maximum": 10}
  }
}`

var feedbackSchema = mustCompileSchema(FeedbackJSONSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid feedback schema: %v", err))
	}
	return s
}

// TruncateForFeedback returns at most maxChars runes of text and whether
// anything was cut. A non-positive maxChars leaves the text unchanged.
func TruncateForFeedback(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}

	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i], true
		}
		n++
	}
	return text, false
}

// CleanJSONBlock strips markdown code fences and any prose around the
// outermost JSON object.
func CleanJSONBlock(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// ParseFeedback validates a raw model response against FeedbackJSONSchema
// and decodes it. Failures are AI_RESPONSE_PARSE_FAILED errors; they are
// never retried automatically.
func ParseFeedback(raw string) (types.Feedback, error) {
	doc := CleanJSONBlock(raw)

	result, err := feedbackSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return types.Feedback{}, errors.NewAIError(errors.ErrCodeAIResponseParse,
			"model response is not valid JSON", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			problems = append(problems, field+": "+desc.Description())
		}
		return types.Feedback{}, errors.NewAIError(errors.ErrCodeAIResponseParse,
			"model response does not match the feedback schema: "+strings.Join(problems, "; "), nil)
	}

	// models sometimes answer 7.5 for a 0-10 rating
	var decoded struct {
		types.Feedback
		OverallRating *float64 `json:"overallRating"`
	}
	if err := json.Unmarshal([]byte(doc), &decoded); err != nil {
		return types.Feedback{}, errors.NewAIError(errors.ErrCodeAIResponseParse,
			"failed to decode feedback", err)
	}

	feedback := decoded.Feedback
	if decoded.OverallRating != nil {
		rating := int(math.Round(*decoded.OverallRating))
		feedback.OverallRating = &rating
	}

	feedback.Strengths = cleanItems(feedback.Strengths)
	feedback.Weaknesses = cleanItems(feedback.Weaknesses)
	feedback.Suggestions = cleanItems(feedback.Suggestions)
	feedback.MissingSkills = cleanItems(feedback.MissingSkills)
	if feedback.MissingSkills != nil && len(feedback.MissingSkills) == 0 {
		feedback.MissingSkills = nil
	}
	return feedback, nil
}

// cleanItems trims entries and drops blanks; the result is never nil for a
// non-nil input.
func cleanItems(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
