package config

import (
	"resumescore/internal/scoring"
)

// ScoringConfig holds the domain profiles used for detection and keyword
// relevance. Order matters: ties in detection go to the earlier profile.
type ScoringConfig struct {
	Profiles []ProfileConfig `mapstructure:"profiles"`
}

// ProfileConfig is one domain profile as written in config.yaml
type ProfileConfig struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

// ProfileSet builds the scoring profiles. With no profiles configured the
// built-in tech, medical and business set is returned.
func (s ScoringConfig) ProfileSet() (*scoring.ProfileSet, error) {
	if len(s.Profiles) == 0 {
		return scoring.DefaultProfiles(), nil
	}

	profiles := make([]scoring.DomainProfile, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		profiles = append(profiles, scoring.DomainProfile{Name: p.Name, Keywords: p.Keywords})
	}
	return scoring.NewProfileSet(profiles...)
}
