package types

import (
	"time"

	"resumescore/internal/scoring"
)

// FeedbackInput represents the input for requesting résumé feedback
type FeedbackInput struct {
	ResumeText string `json:"resumeText"`
	// Domain is the detected or requested domain, passed to the model as context
	Domain string `json:"domain,omitempty"`
}

// Feedback represents the qualitative review returned by the language model
type Feedback struct {
	Strengths     []string `json:"strengths" yaml:"strengths"`
	Weaknesses    []string `json:"weaknesses" yaml:"weaknesses"`
	Suggestions   []string `json:"suggestions" yaml:"suggestions"`
	MissingSkills []string `json:"missingSkills,omitempty" yaml:"missingSkills,omitempty"`
	OverallRating *int     `json:"overallRating,omitempty" yaml:"overallRating,omitempty"` // 0-10
}

// ScoreReport is the presentation form of a scoring result
type ScoreReport struct {
	Domain          string                 `json:"domain" yaml:"domain"`
	DomainForced    bool                   `json:"domainForced,omitempty" yaml:"domainForced,omitempty"`
	Total           int                    `json:"total" yaml:"total"`
	Breakdown       scoring.ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
	Buckets         []scoring.Bucket       `json:"buckets" yaml:"buckets"`
	MatchedKeywords []string               `json:"matchedKeywords" yaml:"matchedKeywords"`
	DomainMatches   []scoring.DomainMatch  `json:"domainMatches" yaml:"domainMatches"`
}

// NewScoreReport converts an engine evaluation into a report
func NewScoreReport(eval scoring.Evaluation) ScoreReport {
	matched := eval.Result.Signals.MatchedKeywords
	if matched == nil {
		matched = []string{}
	}
	return ScoreReport{
		Domain:          eval.Result.Domain,
		DomainForced:    eval.Forced,
		Total:           eval.Result.Total,
		Breakdown:       eval.Result.Breakdown,
		Buckets:         scoring.Present(eval.Result.Breakdown),
		MatchedKeywords: matched,
		DomainMatches:   eval.Detection.Counts,
	}
}

// DocumentInfo describes the uploaded document the text came from
type DocumentInfo struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	MIMEType   string `json:"mimeType" yaml:"mimeType"`
	Format     string `json:"format" yaml:"format"`
	Pages      int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Characters int    `json:"characters" yaml:"characters"`
}

// Report statuses
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// AnalysisReport merges the score and the feedback for display. Feedback is
// nil when it was skipped or failed; FeedbackWarning explains the latter.
type AnalysisReport struct {
	ID              string       `json:"id" yaml:"id"`
	CreatedAt       time.Time    `json:"createdAt" yaml:"createdAt"`
	Status          string       `json:"status" yaml:"status"`
	Document        DocumentInfo `json:"document" yaml:"document"`
	Score           ScoreReport  `json:"score" yaml:"score"`
	Feedback        *Feedback    `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	FeedbackWarning string       `json:"feedbackWarning,omitempty" yaml:"feedbackWarning,omitempty"`
	FeedbackSkipped bool         `json:"feedbackSkipped,omitempty" yaml:"feedbackSkipped,omitempty"`
}

// FeedbackReport wraps feedback returned by the standalone feedback path
type FeedbackReport struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Domain    string    `json:"domain,omitempty" yaml:"domain,omitempty"`
	Feedback  Feedback  `json:"feedback" yaml:"feedback"`
	Truncated bool      `json:"truncated" yaml:"truncated"`
}

// DomainList is the listing of configured domain profiles
type DomainList struct {
	Domains []scoring.DomainProfile `json:"domains" yaml:"domains"`
}
