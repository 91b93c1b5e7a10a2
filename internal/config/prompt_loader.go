package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Prompt sources, in order of precedence
const (
	PromptSourceFile    = "file"
	PromptSourceConfig  = "config"
	PromptSourceDefault = "default"
)

// LoadedPrompts holds the prompt text read from prompt files for the
// feedback operation. Empty fields mean no file was configured.
type LoadedPrompts struct {
	SystemPrompt string
	UserPrompt   string
}

// loadPromptsFromFiles reads the feedback prompt files, if any, after
// operation-level paths have been merged with the global ones.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	prompts := c.GetFeedbackConfig().Prompts
	if err := validatePromptFiles(prompts); err != nil {
		return err
	}

	var loaded LoadedPrompts
	if prompts.SystemPromptFile != "" {
		content, err := loadPromptFromFile(prompts.SystemPromptFile, "system")
		if err != nil {
			return err
		}
		loaded.SystemPrompt = content
	}
	if prompts.UserPromptFile != "" {
		content, err := loadPromptFromFile(prompts.UserPromptFile, "user")
		if err != nil {
			return err
		}
		loaded.UserPrompt = content
	}

	if err := validateUserPromptTemplate(ResolvePrompt(loaded.UserPrompt, prompts.UserPrompt, "%s")); err != nil {
		return err
	}

	c.loadedPrompts = loaded
	logPromptLoadingSummary(c.PromptSources())
	return nil
}

// loadPromptFromFile reads a prompt file and rejects empty content
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("invalid path for %s prompt: %w", promptType, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file %s: %w", promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file is empty: %s", promptType, absPath)
	}

	log.Printf("[CONFIG] Loaded %s prompt from file: %s (%d bytes)", promptType, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists
func validatePromptFiles(prompts PromptConfig) error {
	var validationErrors []string

	validateFile := func(filePath, promptType string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", promptType, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", promptType, absPath))
		}
	}

	validateFile(prompts.SystemPromptFile, "system")
	validateFile(prompts.UserPromptFile, "user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

// validateUserPromptTemplate requires exactly one %s verb, where the résumé text goes.
func validateUserPromptTemplate(tmpl string) error {
	if n := strings.Count(tmpl, "%s"); n != 1 {
		return fmt.Errorf("user prompt must contain exactly one %%s placeholder for the resume text, found %d", n)
	}
	return nil
}

// ResolvePrompt selects a prompt by precedence: file, then config, then default.
func ResolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// PromptSources reports where the system and user prompts come from
func (c *Config) PromptSources() (system, user string) {
	prompts := c.GetFeedbackConfig().Prompts
	return promptSource(c.loadedPrompts.SystemPrompt, prompts.SystemPrompt),
		promptSource(c.loadedPrompts.UserPrompt, prompts.UserPrompt)
}

func promptSource(loaded, configured string) string {
	switch {
	case loaded != "":
		return PromptSourceFile
	case configured != "":
		return PromptSourceConfig
	default:
		return PromptSourceDefault
	}
}

func logPromptLoadingSummary(system, user string) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")
	log.Printf("[CONFIG] Feedback system prompt: %s", system)
	log.Printf("[CONFIG] Feedback user prompt: %s", user)
	log.Println("[CONFIG] ==========================================")
}
