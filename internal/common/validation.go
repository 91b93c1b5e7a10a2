package common

import (
	"fmt"
	"slices"
	"strings"

	"resumescore/internal/formatters"
)

// NormalizeOutputFormat lower-cases format and checks it against the
// configured formats. An empty configuration allows anything the formatter
// registry can render.
func NormalizeOutputFormat(format string, supportedFormats []string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	available := SupportedOutputFormats(supportedFormats)

	if slices.Contains(available, normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, available)
}

// SupportedOutputFormats returns the configured formats the registry can
// render, in configuration order. With nothing configured it returns every
// registered format.
func SupportedOutputFormats(supportedFormats []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return registered
	}

	out := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		f = strings.ToLower(strings.TrimSpace(f))
		if slices.Contains(registered, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
