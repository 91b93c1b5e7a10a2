package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeText = `Alex Kim
Backend engineer, 6 years of experience with python, sql, docker and aws.
Led a migration project that reduced costs by 35%.
B.Sc. in Computer Science`

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.MaxFileSize = 1 << 20
	cfg.App.DefaultFormat = "json"
	cfg.App.SupportedFormats = []string{"json", "yaml", "text", "markdown"}
	return cfg
}

// runCLI executes the root command with cfg preloaded into the context
func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(withRuntime(context.Background(), cfg, testLogger()))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readJSON[T any](t *testing.T, path string) T {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	// no config in the context: version must not try to load one
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "resumescore version "+Version)
}

func TestScoreCommand(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)
	outFile := filepath.Join(t.TempDir(), "score.json")

	_, err := runCLI(t, testConfig(), "score", resume, "--output", outFile)
	require.NoError(t, err)

	report := readJSON[types.ScoreReport](t, outFile)
	assert.Equal(t, "tech", report.Domain)
	assert.False(t, report.DomainForced)
	assert.Positive(t, report.Total)
	assert.Contains(t, report.MatchedKeywords, "python")
}

func TestScoreCommandForcedDomain(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)
	outFile := filepath.Join(t.TempDir(), "score.json")

	_, err := runCLI(t, testConfig(), "score", resume, "-d", "business", "-o", outFile)
	require.NoError(t, err)

	report := readJSON[types.ScoreReport](t, outFile)
	assert.Equal(t, "business", report.Domain)
	assert.True(t, report.DomainForced)
}

func TestScoreCommandErrors(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{name: "unknown domain", args: []string{"score", resume, "--domain", "astronomy"}, wantCode: errors.ErrCodeUnknownDomain},
		{name: "bad format", args: []string{"score", resume, "--format", "xml"}, wantCode: errors.ErrCodeInvalidFormat},
		{name: "missing file", args: []string{"score", filepath.Join(t.TempDir(), "nope.pdf")}},
		{name: "empty document", args: []string{"score", writeFile(t, "blank.txt", "  \n")}, wantCode: errors.ErrCodeEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, testConfig(), tt.args...)
			require.Error(t, err)
			if tt.wantCode != "" {
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			}
		})
	}
}

func TestAnalyzeCommandWithoutAIKey(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)
	outFile := filepath.Join(t.TempDir(), "report.json")

	_, err := runCLI(t, testConfig(), "analyze", resume, "-o", outFile)
	require.NoError(t, err)

	report := readJSON[types.AnalysisReport](t, outFile)
	assert.Equal(t, types.StatusPartial, report.Status)
	assert.NotEmpty(t, report.FeedbackWarning)
	assert.Nil(t, report.Feedback)
	assert.Equal(t, "tech", report.Score.Domain)
	assert.Equal(t, "cv.txt", report.Document.Name)
}

func TestAnalyzeCommandNoFeedback(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)
	outFile := filepath.Join(t.TempDir(), "report.md")

	_, err := runCLI(t, testConfig(), "analyze", resume, "--no-feedback", "--format", "Markdown", "-o", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Feedback was not requested.")
}

func TestFeedbackCommandWithoutAIKey(t *testing.T) {
	resume := writeFile(t, "cv.txt", resumeText)

	_, err := runCLI(t, testConfig(), "feedback", resume)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFeedbackDisabled), "got %v", err)
}

func TestDomainsCommand(t *testing.T) {
	out, err := runCLI(t, testConfig(), "domains", "--format", "json")
	require.NoError(t, err)

	var list types.DomainList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Domains, 3)
	assert.Equal(t, "tech", list.Domains[0].Name)
}

func TestDomainsCommandCustomProfiles(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Profiles = []config.ProfileConfig{{Name: "legal", Keywords: []string{"litigation"}}}

	out, err := runCLI(t, cfg, "domains", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: legal")
	assert.Contains(t, out, "- litigation")
}

func TestRootLoadsConfigFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RESUMESCORE_AI_APIKEY", "")
	configFile := writeFile(t, "config.yaml", `app:
  logLevel: error
  defaultFormat: yaml
scoring:
  profiles:
    - name: legal
      keywords: [litigation, contracts]
`)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"domains", "--config", configFile})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "name: legal")
}

func TestRootRejectsBadLogLevel(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configFile := writeFile(t, "config.yaml", "app:\n  logLevel: error\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"domains", "--config", configFile, "--log-level", "loud"})

	err := cmd.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "invalid log level")
}

func TestContextHelpers(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)
	_, err = getLoggerFromContext(context.Background())
	assert.Error(t, err)

	cfg := testConfig()
	ctx := withRuntime(context.Background(), cfg, testLogger())
	got, err := getConfigFromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestServeOptionsApply(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9090", "--tls-mode", "server"}))

	cfg := testConfig()
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"

	opts := &serveOptions{port: "9090", tlsMode: "server"}
	opts.apply(cmd.Flags(), cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset flags keep the configured value")
}

func TestServeRejectsInvalidTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = "0"

	_, err := runCLI(t, cfg, "serve", "--tls-mode", "server")
	require.ErrorContains(t, err, "invalid TLS configuration")
}
