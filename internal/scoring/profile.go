// Package scoring implements the rule-based résumé scoring engine: domain
// detection over a fixed set of keyword profiles and a capped, six-category
// rubric. Everything in this package is pure and safe for concurrent use.
package scoring

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DomainProfile is a named professional field and the lowercase keywords
// that signal it.
type DomainProfile struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ProfileSet is an ordered, read-only collection of domain profiles.
// Declaration order is significant: it breaks ties during detection.
type ProfileSet struct {
	profiles []DomainProfile
	byName   map[string]int
}

var (
	ErrNoProfiles     = errors.New("at least one domain profile is required")
	ErrUnknownDomain  = errors.New("unknown domain")
	ErrInvalidProfile = errors.New("invalid domain profile")
)

// NewProfileSet validates and normalizes profiles into an immutable set.
// Names must be unique and non-blank; every profile needs at least one
// non-blank keyword. Keywords are trimmed, lower-cased and de-duplicated.
func NewProfileSet(profiles ...DomainProfile) (*ProfileSet, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	set := &ProfileSet{
		profiles: make([]DomainProfile, 0, len(profiles)),
		byName:   make(map[string]int, len(profiles)),
	}

	for i, p := range profiles {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return nil, fmt.Errorf("%w: profile %d has no name", ErrInvalidProfile, i)
		}
		if _, dup := set.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile name %q", ErrInvalidProfile, name)
		}

		keywords := normalizeKeywords(p.Keywords)
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: profile %q has no keywords", ErrInvalidProfile, name)
		}

		set.byName[name] = len(set.profiles)
		set.profiles = append(set.profiles, DomainProfile{Name: name, Keywords: keywords})
	}

	return set, nil
}

// MustProfileSet is like NewProfileSet but panics on invalid input.
// Intended for package-level tables.
func MustProfileSet(profiles ...DomainProfile) *ProfileSet {
	set, err := NewProfileSet(profiles...)
	if err != nil {
		panic(err)
	}
	return set
}

func normalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Profiles returns a copy of the profiles in declaration order.
func (s *ProfileSet) Profiles() []DomainProfile {
	out := make([]DomainProfile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = p.clone()
	}
	return out
}

func (p DomainProfile) clone() DomainProfile {
	return DomainProfile{Name: p.Name, Keywords: slices.Clone(p.Keywords)}
}

// Names returns profile names in declaration order.
func (s *ProfileSet) Names() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of profiles.
func (s *ProfileSet) Len() int {
	return len(s.profiles)
}

// Lookup finds a profile by case-insensitive name.
func (s *ProfileSet) Lookup(name string) (DomainProfile, bool) {
	idx, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DomainProfile{}, false
	}
	return s.profiles[idx].clone(), true
}

// DefaultProfiles returns the built-in profiles: tech, medical, business.
func DefaultProfiles() *ProfileSet {
	return defaultProfiles
}

var defaultProfiles = MustProfileSet(
	DomainProfile{
		Name: "tech",
		Keywords: []string{
			"python", "java", "javascript", "sql", "machine learning",
			"deep learning", "data science", "tensorflow", "pytorch", "aws",
			"docker", "kubernetes", "react", "node.js", "rest api", "linux",
			"cloud", "microservices", "devops", "nlp",
		},
	},
	DomainProfile{
		Name: "medical",
		Keywords: []string{
			"patient", "clinical", "hospital", "diagnosis", "treatment",
			"surgery", "nursing", "healthcare", "pharmacy", "mbbs",
			"medical", "intensive care", "emr", "pathology", "radiology",
		},
	},
	DomainProfile{
		Name: "business",
		Keywords: []string{
			"management", "marketing", "sales", "finance", "strategy",
			"business development", "stakeholder", "budget", "operations",
			"negotiation", "crm", "revenue", "leadership", "consulting",
		},
	},
)
