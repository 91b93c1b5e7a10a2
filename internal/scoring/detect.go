package scoring

// DomainMatch is the detection count for a single profile.
type DomainMatch struct {
	Domain  string `json:"domain" yaml:"domain"`
	Matches int    `json:"matches" yaml:"matches"`
}

// Detection is the outcome of domain detection: the winning profile and the
// per-profile counts in declaration order.
type Detection struct {
	Profile DomainProfile `json:"profile" yaml:"profile"`
	Counts  []DomainMatch `json:"counts" yaml:"counts"`
}

// Detect picks the profile with the most distinct keyword hits in text.
// Ties, including the all-zero case, go to the earliest declared profile,
// so a result is always returned.
func (s *ProfileSet) Detect(text string) Detection {
	return s.detectNormalized(normalize(text))
}

func (s *ProfileSet) detectNormalized(lowered string) Detection {
	counts := make([]DomainMatch, len(s.profiles))
	best := 0
	for i, p := range s.profiles {
		n := len(matchedKeywords(lowered, p.Keywords))
		counts[i] = DomainMatch{Domain: p.Name, Matches: n}
		// strict comparison keeps the first profile on ties
		if n > counts[best].Matches {
			best = i
		}
	}
	return Detection{Profile: s.profiles[best].clone(), Counts: counts}
}

// DetectDomain returns the best matching profile from set for text.
func DetectDomain(text string, set *ProfileSet) DomainProfile {
	return set.Detect(text).Profile
}
