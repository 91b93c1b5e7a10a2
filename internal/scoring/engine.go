package scoring

import "fmt"

// Evaluation bundles a score with the detection that selected its profile.
type Evaluation struct {
	Result    ScoreResult `json:"result" yaml:"result"`
	Detection Detection   `json:"detection" yaml:"detection"`
	// Forced is true when the caller named the domain instead of detecting it.
	Forced bool `json:"forced" yaml:"forced"`
}

// Engine scores text against an injected profile set.
type Engine struct {
	profiles *ProfileSet
}

// NewEngine returns an engine over profiles. A nil set falls back to
// DefaultProfiles.
func NewEngine(profiles *ProfileSet) *Engine {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Engine{profiles: profiles}
}

// Profiles exposes the engine's profile set.
func (e *Engine) Profiles() *ProfileSet {
	return e.profiles
}

// Evaluate detects the domain of text and scores it under that profile.
func (e *Engine) Evaluate(text string) Evaluation {
	lowered := normalize(text)
	det := e.profiles.detectNormalized(lowered)
	return Evaluation{
		Result:    scoreNormalized(lowered, det.Profile),
		Detection: det,
	}
}

// EvaluateAs scores text under the named profile, skipping detection for
// the choice of profile. Counts are still reported for display. An empty
// name behaves like Evaluate.
func (e *Engine) EvaluateAs(text, domain string) (Evaluation, error) {
	if domain == "" {
		return e.Evaluate(text), nil
	}

	profile, ok := e.profiles.Lookup(domain)
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownDomain, domain, e.profiles.Names())
	}

	lowered := normalize(text)
	det := e.profiles.detectNormalized(lowered)
	return Evaluation{
		Result:    scoreNormalized(lowered, profile),
		Detection: det,
		Forced:    true,
	}, nil
}
