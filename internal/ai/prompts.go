package ai

import (
	"fmt"

	"resumescore/internal/config"
)

// DefaultSystemPrompt is the reviewer persona sent as the system instruction
const DefaultSystemPrompt = `You are a professional resume reviewer and career coach.

- Base every statement on the resume text you are given; never invent experience
- Keep each list item to one short, specific sentence
- Reply with a single JSON object and nothing else`

// DefaultUserPrompt is the feedback request. The single %s receives the
// (possibly truncated) resume text.
const DefaultUserPrompt = `Review the resume below and return strict JSON with these fields:

- "strengths": array of short strings, what the resume does well
- "weaknesses": array of short strings, what holds it back
- "suggestions": array of short strings, concrete improvements
- "missingSkills": array of short strings, skills a recruiter for this field would expect but cannot find
- "overallRating": integer from 0 to 10

**Resume:**
-----
%s
-----`

// domainHint is appended when the scoring engine has classified the resume
const domainHint = "\n\nThe resume was classified under the %q domain. Judge missing skills against that field."

// promptSet resolves the prompts once per provider: file, then config, then default
type promptSet struct {
	system string
	user   string
}

func newPromptSet(cfg config.OperationAIConfig, loaded config.LoadedPrompts) promptSet {
	return promptSet{
		system: config.ResolvePrompt(loaded.SystemPrompt, cfg.Prompts.SystemPrompt, DefaultSystemPrompt),
		user:   config.ResolvePrompt(loaded.UserPrompt, cfg.Prompts.UserPrompt, DefaultUserPrompt),
	}
}

// build returns the system prompt and the formatted user prompt
func (p promptSet) build(resumeText, domain string) (string, string) {
	userPrompt := fmt.Sprintf(p.user, resumeText)
	if domain != "" {
		userPrompt += fmt.Sprintf(domainHint, domain)
	}
	return p.system, userPrompt
}
