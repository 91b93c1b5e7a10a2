package scoring

import (
	"regexp"
	"strings"
)

// Rubric weights and caps. Every sub-score is weight*count capped at its
// ceiling, so the category maxima sum to MaxTotal.
const (
	KeywordWeight = 2
	KeywordCap    = 25

	AchievementWeight = 2
	AchievementCap    = 20

	ProjectWeight = 4
	ProjectCap    = 20

	ExperienceWeight = 2
	ExperienceCap    = 15

	EducationBonus    = 10
	EducationFallback = 5

	FormattingBaseline = 10

	MaxTotal = 100
)

// AchievementPattern matches quantified achievements: digits followed by a
// percent sign ("increased revenue by 30%").
const AchievementPattern = `\d+%`

var achievementRe = regexp.MustCompile(AchievementPattern)

const (
	projectTerm    = "project"
	experienceTerm = "experience"
)

// degreeMarkers earn the education bonus when any one appears.
var degreeMarkers = []string{"b.tech", "m.tech", "bsc", "msc", "mba", "phd", "degree", "mbbs"}

// DegreeMarkers returns the substrings that count as a recognized degree.
func DegreeMarkers() []string {
	out := make([]string, len(degreeMarkers))
	copy(out, degreeMarkers)
	return out
}

// ScoreBreakdown holds the capped sub-score of every rubric category.
type ScoreBreakdown struct {
	KeywordRelevance int `json:"keywordRelevance" yaml:"keywordRelevance"`
	Achievements     int `json:"achievements" yaml:"achievements"`
	Projects         int `json:"projects" yaml:"projects"`
	Experience       int `json:"experience" yaml:"experience"`
	Education        int `json:"education" yaml:"education"`
	Formatting       int `json:"formatting" yaml:"formatting"`
}

// Sum adds up the sub-scores without clamping.
func (b ScoreBreakdown) Sum() int {
	return b.KeywordRelevance + b.Achievements + b.Projects + b.Experience + b.Education + b.Formatting
}

// Signals are the raw, uncapped counts the breakdown was derived from.
type Signals struct {
	MatchedKeywords    []string `json:"matchedKeywords" yaml:"matchedKeywords"`
	Achievements       int      `json:"achievements" yaml:"achievements"`
	ProjectMentions    int      `json:"projectMentions" yaml:"projectMentions"`
	ExperienceMentions int      `json:"experienceMentions" yaml:"experienceMentions"`
	DegreeFound        bool     `json:"degreeFound" yaml:"degreeFound"`
}

// ScoreResult is the outcome of a single scoring call.
type ScoreResult struct {
	Domain    string         `json:"domain" yaml:"domain"`
	Breakdown ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
	Total     int            `json:"total" yaml:"total"`
	Signals   Signals        `json:"signals" yaml:"signals"`
}

// Score rates text against profile's keywords. It is deterministic and
// never fails: any string, including empty or badly encoded text, yields a
// total in [0, MaxTotal].
func Score(text string, profile DomainProfile) ScoreResult {
	return scoreNormalized(normalize(text), profile)
}

func scoreNormalized(lowered string, profile DomainProfile) ScoreResult {
	sig := Signals{
		MatchedKeywords:    matchedKeywords(lowered, normalizeKeywords(profile.Keywords)),
		Achievements:       len(achievementRe.FindAllStringIndex(lowered, -1)),
		ProjectMentions:    strings.Count(lowered, projectTerm),
		ExperienceMentions: strings.Count(lowered, experienceTerm),
		DegreeFound:        containsAny(lowered, degreeMarkers),
	}

	b := ScoreBreakdown{
		KeywordRelevance: capped(len(sig.MatchedKeywords), KeywordWeight, KeywordCap),
		Achievements:     capped(sig.Achievements, AchievementWeight, AchievementCap),
		Projects:         capped(sig.ProjectMentions, ProjectWeight, ProjectCap),
		Experience:       capped(sig.ExperienceMentions, ExperienceWeight, ExperienceCap),
		Education:        EducationFallback,
		Formatting:       FormattingBaseline,
	}
	if sig.DegreeFound {
		b.Education = EducationBonus
	}

	return ScoreResult{
		Domain:    profile.Name,
		Breakdown: b,
		Total:     clamp(b.Sum(), 0, MaxTotal),
		Signals:   sig,
	}
}

// normalize lower-cases text once per call. Invalid UTF-8 is replaced first
// so counting never sees partial runes.
func normalize(text string) string {
	return strings.ToLower(strings.ToValidUTF8(text, "�"))
}

// matchedKeywords returns the keywords present in lowered, each at most once,
// in keyword order.
func matchedKeywords(lowered string, keywords []string) []string {
	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func containsAny(lowered string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lowered, n) {
			return true
		}
	}
	return false
}

// capped multiplies count by weight without exceeding ceiling. Guarding
// the count first keeps huge inputs from overflowing.
func capped(count, weight, ceiling int) int {
	if count <= 0 {
		return 0
	}
	if count >= ceiling {
		return ceiling
	}
	return min(count*weight, ceiling)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
