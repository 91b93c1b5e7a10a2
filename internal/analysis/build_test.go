package analysis

import (
	"context"
	"testing"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithoutAIKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.MaxFileSize = 1024

	c, err := Build(cfg, testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Nil(t, c.Feedback)
	assert.False(t, c.Analysis.FeedbackEnabled())
	assert.Len(t, c.Analysis.Domains().Domains, 3)

	_, err = c.Analysis.Feedback(context.Background(), "python developer", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFeedbackDisabled), "got %v", err)
}

func TestBuildUnsupportedProviderDegrades(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.MaxFileSize = 1024
	cfg.AI.APIKey = "key"
	cfg.AI.Provider = "other"

	c, err := Build(cfg, testLogger(), nil)
	require.NoError(t, err)

	report, err := c.Analysis.AnalyzeText(context.Background(), "python sql", Options{})
	require.NoError(t, err)
	assert.Equal(t, "partial", report.Status)
	assert.NotEmpty(t, report.FeedbackWarning)
}

func TestBuildCustomProfiles(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.MaxFileSize = 1024
	cfg.Scoring.Profiles = []config.ProfileConfig{
		{Name: "legal", Keywords: []string{"litigation", "contracts"}},
	}

	c, err := Build(cfg, testLogger(), nil)
	require.NoError(t, err)

	score, err := c.Analysis.ScoreText(context.Background(), "litigation and contracts", "")
	require.NoError(t, err)
	assert.Equal(t, "legal", score.Domain)
}

func TestBuildInvalidProfiles(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scoring.Profiles = []config.ProfileConfig{{Name: "", Keywords: []string{"x"}}}

	_, err := Build(cfg, testLogger(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestComponentsCloseNil(t *testing.T) {
	var c *Components
	assert.NoError(t, c.Close())
	assert.NoError(t, (&Components{}).Close())
}
