package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumescore/internal/scoring"
	"resumescore/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Data type keys used by the registry
const (
	TypeAny            = "any"
	TypeAnalysisReport = "AnalysisReport"
	TypeScoreReport    = "ScoreReport"
	TypeFeedbackReport = "FeedbackReport"
	TypeDomainList     = "DomainList"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", TypeAny, &YAMLFormatter{})
	registry.RegisterFormatter("text", TypeAnalysisReport, &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", TypeAnalysisReport, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeScoreReport, &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", TypeScoreReport, &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeFeedbackReport, &FeedbackTextFormatter{})
	registry.RegisterFormatter("markdown", TypeFeedbackReport, &FeedbackMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeDomainList, &DomainListTextFormatter{})
	registry.RegisterFormatter("markdown", TypeDomainList, &DomainListMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter. Pointers to report
// types are dereferenced first.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalysisReport:
		if v != nil {
			return *v
		}
	case *types.ScoreReport:
		if v != nil {
			return *v
		}
	case *types.FeedbackReport:
		if v != nil {
			return *v
		}
	case *types.DomainList:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport:
		return TypeAnalysisReport
	case types.ScoreReport:
		return TypeScoreReport
	case types.FeedbackReport:
		return TypeFeedbackReport
	case types.DomainList:
		return TypeDomainList
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var out strings.Builder
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return TypeAny
}

// AnalysisTextFormatter handles text formatting for full analysis reports
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	if report.Document.Name != "" {
		output.WriteString(fmt.Sprintf("Document: %s (%s", report.Document.Name, report.Document.Format))
		if report.Document.Pages > 0 {
			output.WriteString(fmt.Sprintf(", %d pages", report.Document.Pages))
		}
		output.WriteString(")\n")
	}
	writeScoreText(&output, report.Score)

	output.WriteString("\n=== FEEDBACK ===\n")
	switch {
	case report.FeedbackSkipped:
		output.WriteString("Feedback was not requested.\n")
	case report.Feedback != nil:
		writeFeedbackText(&output, *report.Feedback)
	default:
		output.WriteString(fmt.Sprintf("Warning: %s\n", report.FeedbackWarning))
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return TypeAnalysisReport
}

// AnalysisMarkdownFormatter handles markdown formatting for full analysis reports
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	if report.Document.Name != "" {
		output.WriteString(fmt.Sprintf("*%s, %s*\n\n", report.Document.Name, report.Document.Format))
	}
	writeScoreMarkdown(&output, report.Score)

	output.WriteString("## Feedback\n\n")
	switch {
	case report.FeedbackSkipped:
		output.WriteString("Feedback was not requested.\n")
	case report.Feedback != nil:
		writeFeedbackMarkdown(&output, *report.Feedback)
	default:
		output.WriteString(fmt.Sprintf("> **Warning:** %s\n", report.FeedbackWarning))
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return TypeAnalysisReport
}

// ScoreTextFormatter handles text formatting for score reports
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== RESUME SCORE ===\n\n")
	writeScoreText(&output, report)
	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return TypeScoreReport
}

// ScoreMarkdownFormatter handles markdown formatting for score reports
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Score\n\n")
	writeScoreMarkdown(&output, report)
	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return TypeScoreReport
}

// FeedbackTextFormatter handles text formatting for standalone feedback
type FeedbackTextFormatter struct{}

func (ftf *FeedbackTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.FeedbackReport)
	if !ok {
		return "", fmt.Errorf("expected FeedbackReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== RESUME FEEDBACK ===\n")
	if report.Domain != "" {
		output.WriteString(fmt.Sprintf("Domain: %s\n", report.Domain))
	}
	if report.Truncated {
		output.WriteString("Note: only the beginning of the resume was reviewed.\n")
	}
	writeFeedbackText(&output, report.Feedback)
	return output.String(), nil
}

func (ftf *FeedbackTextFormatter) SupportedType() string {
	return TypeFeedbackReport
}

// FeedbackMarkdownFormatter handles markdown formatting for standalone feedback
type FeedbackMarkdownFormatter struct{}

func (fmf *FeedbackMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.FeedbackReport)
	if !ok {
		return "", fmt.Errorf("expected FeedbackReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Feedback\n\n")
	if report.Domain != "" {
		output.WriteString(fmt.Sprintf("**Domain:** %s\n\n", report.Domain))
	}
	if report.Truncated {
		output.WriteString("> Only the beginning of the resume was reviewed.\n\n")
	}
	writeFeedbackMarkdown(&output, report.Feedback)
	return output.String(), nil
}

func (fmf *FeedbackMarkdownFormatter) SupportedType() string {
	return TypeFeedbackReport
}

// DomainListTextFormatter lists domain profiles as plain text
type DomainListTextFormatter struct{}

func (dtf *DomainListTextFormatter) Format(data any) (string, error) {
	list, ok := data.(types.DomainList)
	if !ok {
		return "", fmt.Errorf("expected DomainList, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== DOMAIN PROFILES ===\n\n")
	for i, profile := range list.Domains {
		output.WriteString(fmt.Sprintf("%d. %s (%d keywords)\n", i+1, profile.Name, len(profile.Keywords)))
		output.WriteString("   ")
		output.WriteString(strings.Join(profile.Keywords, ", "))
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (dtf *DomainListTextFormatter) SupportedType() string {
	return TypeDomainList
}

// DomainListMarkdownFormatter lists domain profiles as a markdown table
type DomainListMarkdownFormatter struct{}

func (dmf *DomainListMarkdownFormatter) Format(data any) (string, error) {
	list, ok := data.(types.DomainList)
	if !ok {
		return "", fmt.Errorf("expected DomainList, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Domain Profiles\n\n")
	output.WriteString("| Domain | Keywords |\n|---|---|\n")
	for _, profile := range list.Domains {
		output.WriteString(fmt.Sprintf("| %s | %s |\n", profile.Name, strings.Join(profile.Keywords, ", ")))
	}
	return output.String(), nil
}

func (dmf *DomainListMarkdownFormatter) SupportedType() string {
	return TypeDomainList
}

func writeScoreText(output *strings.Builder, report types.ScoreReport) {
	domain := report.Domain
	if report.DomainForced {
		domain += " (selected)"
	}
	output.WriteString(fmt.Sprintf("Domain: %s\n", domain))
	output.WriteString(fmt.Sprintf("Overall Score: %d/%d\n\n", report.Total, scoring.MaxTotal))

	for _, bucket := range report.Buckets {
		output.WriteString(fmt.Sprintf("  %-14s %3d/%d\n", bucket.Label, bucket.Score, bucket.Max))
	}

	output.WriteString("\nBreakdown:\n")
	for _, category := range report.Breakdown.Categories() {
		output.WriteString(fmt.Sprintf("  %-18s %3d/%d\n", category.Name, category.Score, category.Max))
	}

	if len(report.MatchedKeywords) > 0 {
		output.WriteString(fmt.Sprintf("\nMatched keywords: %s\n", strings.Join(report.MatchedKeywords, ", ")))
	}
}

func writeScoreMarkdown(output *strings.Builder, report types.ScoreReport) {
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/%d\n\n", report.Total, scoring.MaxTotal))
	output.WriteString(fmt.Sprintf("**Domain:** %s", report.Domain))
	if report.DomainForced {
		output.WriteString(" (selected)")
	}
	output.WriteString("\n\n")

	output.WriteString("## Score Breakdown\n\n")
	output.WriteString("| Section | Score | Max |\n|---|---:|---:|\n")
	for _, bucket := range report.Buckets {
		output.WriteString(fmt.Sprintf("| %s | %d | %d |\n", bucket.Label, bucket.Score, bucket.Max))
	}
	output.WriteString("\n")

	if len(report.MatchedKeywords) > 0 {
		output.WriteString("**Matched keywords:** ")
		output.WriteString(strings.Join(report.MatchedKeywords, ", "))
		output.WriteString("\n\n")
	}
}

func writeFeedbackText(output *strings.Builder, feedback types.Feedback) {
	if feedback.OverallRating != nil {
		output.WriteString(fmt.Sprintf("Overall Rating: %d/10\n", *feedback.OverallRating))
	}
	writeListText(output, "Strengths", feedback.Strengths)
	writeListText(output, "Weaknesses", feedback.Weaknesses)
	writeListText(output, "Suggestions", feedback.Suggestions)
	if len(feedback.MissingSkills) > 0 {
		writeListText(output, "Missing Skills", feedback.MissingSkills)
	}
}

func writeListText(output *strings.Builder, title string, items []string) {
	output.WriteString("\n" + title + ":\n")
	if len(items) == 0 {
		output.WriteString("- (none)\n")
		return
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
}

func writeFeedbackMarkdown(output *strings.Builder, feedback types.Feedback) {
	if feedback.OverallRating != nil {
		output.WriteString(fmt.Sprintf("**Overall Rating:** %d/10\n\n", *feedback.OverallRating))
	}
	writeListMarkdown(output, "Strengths", feedback.Strengths)
	writeListMarkdown(output, "Weaknesses", feedback.Weaknesses)
	writeListMarkdown(output, "Suggestions", feedback.Suggestions)
	if len(feedback.MissingSkills) > 0 {
		writeListMarkdown(output, "Missing Skills", feedback.MissingSkills)
	}
}

func writeListMarkdown(output *strings.Builder, title string, items []string) {
	output.WriteString("### " + title + "\n\n")
	if len(items) == 0 {
		output.WriteString("*None*\n\n")
		return
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// GlobalRegistry is the shared registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()
