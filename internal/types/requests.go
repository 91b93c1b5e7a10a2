package types

import (
	"github.com/go-playground/validator/v10"
)

// MaxTextRequestLength bounds the text accepted over the JSON API (bytes).
const MaxTextRequestLength = 200_000

// ScoreRequest is the body of POST /score
type ScoreRequest struct {
	Text   string `json:"text" validate:"required,max=200000"`
	Domain string `json:"domain,omitempty" validate:"omitempty,max=64"`
}

// FeedbackRequest is the body of POST /feedback
type FeedbackRequest struct {
	Text   string `json:"text" validate:"required,max=200000"`
	Domain string `json:"domain,omitempty" validate:"omitempty,max=64"`
}

// AnalyzeTextRequest is the JSON form of POST /analyze
type AnalyzeTextRequest struct {
	Text     string `json:"text" validate:"required,max=200000"`
	Domain   string `json:"domain,omitempty" validate:"omitempty,max=64"`
	Feedback *bool  `json:"feedback,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the ScoreRequest using the validator.
func (r *ScoreRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the FeedbackRequest using the validator.
func (r *FeedbackRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the AnalyzeTextRequest using the validator.
func (r *AnalyzeTextRequest) Validate() error {
	return validate.Struct(r)
}

// WantsFeedback reports whether feedback should be requested. Defaults to true.
func (r *AnalyzeTextRequest) WantsFeedback() bool {
	return r.Feedback == nil || *r.Feedback
}

// FieldError is a single failed validation rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationDetails flattens validator errors for API responses.
func ValidationDetails(err error) []FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
