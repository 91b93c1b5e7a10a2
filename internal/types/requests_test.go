package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ScoreRequest
		wantErr bool
		field   string
	}{
		{name: "valid", req: ScoreRequest{Text: "python developer"}},
		{name: "valid with domain", req: ScoreRequest{Text: "nurse", Domain: "medical"}},
		{name: "missing text", req: ScoreRequest{}, wantErr: true, field: "Text"},
		{name: "text too long", req: ScoreRequest{Text: strings.Repeat("a", MaxTextRequestLength+1)}, wantErr: true, field: "Text"},
		{name: "domain too long", req: ScoreRequest{Text: "x", Domain: strings.Repeat("d", 65)}, wantErr: true, field: "Domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			details := ValidationDetails(err)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].Field)
		})
	}
}

func TestAnalyzeTextRequest_WantsFeedback(t *testing.T) {
	no := false
	yes := true

	assert.True(t, (&AnalyzeTextRequest{Text: "x"}).WantsFeedback())
	assert.True(t, (&AnalyzeTextRequest{Text: "x", Feedback: &yes}).WantsFeedback())
	assert.False(t, (&AnalyzeTextRequest{Text: "x", Feedback: &no}).WantsFeedback())
}

func TestFeedbackRequest_Validate(t *testing.T) {
	assert.NoError(t, (&FeedbackRequest{Text: "résumé"}).Validate())
	assert.Error(t, (&FeedbackRequest{}).Validate())
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
