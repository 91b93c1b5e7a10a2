package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDomain(t *testing.T) {
	set := DefaultProfiles()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "tech", text: "Python developer with Docker and Kubernetes", expected: "tech"},
		{name: "medical", text: "Clinical rotation at the hospital, patient care", expected: "medical"},
		{name: "business", text: "Led marketing strategy and sales operations", expected: "business"},
		{name: "empty falls back to first", text: "", expected: "tech"},
		{name: "no keywords falls back to first", text: "lorem ipsum dolor", expected: "tech"},
		{name: "case insensitive", text: "PATIENT DIAGNOSIS TREATMENT", expected: "medical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDomain(tt.text, set)
			assert.Equal(t, tt.expected, got.Name)
		})
	}
}

func TestDetect_TieGoesToEarliestProfile(t *testing.T) {
	ab := MustProfileSet(
		DomainProfile{Name: "alpha", Keywords: []string{"alpha"}},
		DomainProfile{Name: "beta", Keywords: []string{"beta"}},
	)
	ba := MustProfileSet(
		DomainProfile{Name: "beta", Keywords: []string{"beta"}},
		DomainProfile{Name: "alpha", Keywords: []string{"alpha"}},
	)

	for range 20 {
		assert.Equal(t, "alpha", ab.Detect("alpha and beta").Profile.Name)
		assert.Equal(t, "beta", ba.Detect("alpha and beta").Profile.Name)
		assert.Equal(t, "alpha", ab.Detect("").Profile.Name)
	}
}

func TestDetect_KeywordCountedOncePerProfile(t *testing.T) {
	set := MustProfileSet(
		DomainProfile{Name: "one", Keywords: []string{"go"}},
		DomainProfile{Name: "two", Keywords: []string{"rust", "zig"}},
	)

	det := set.Detect("go go go go go rust zig")

	assert.Equal(t, "two", det.Profile.Name)
	assert.Equal(t, []DomainMatch{{Domain: "one", Matches: 1}, {Domain: "two", Matches: 2}}, det.Counts)
}

func TestDetect_ReturnsCopy(t *testing.T) {
	set := DefaultProfiles()
	det := set.Detect("python")
	det.Profile.Keywords[0] = "mutated"

	p, ok := set.Lookup("tech")
	require.True(t, ok)
	assert.Equal(t, "python", p.Keywords[0])
}

func TestNewProfileSet_Validation(t *testing.T) {
	tests := []struct {
		name     string
		profiles []DomainProfile
		err      error
	}{
		{name: "empty", profiles: nil, err: ErrNoProfiles},
		{name: "blank name", profiles: []DomainProfile{{Name: "  ", Keywords: []string{"x"}}}, err: ErrInvalidProfile},
		{name: "no keywords", profiles: []DomainProfile{{Name: "a", Keywords: []string{" ", ""}}}, err: ErrInvalidProfile},
		{
			name: "duplicate name",
			profiles: []DomainProfile{
				{Name: "Tech", Keywords: []string{"x"}},
				{Name: "tech", Keywords: []string{"y"}},
			},
			err: ErrInvalidProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfileSet(tt.profiles...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "unexpected error: %v", err)
		})
	}
}

func TestNewProfileSet_Normalizes(t *testing.T) {
	set, err := NewProfileSet(DomainProfile{Name: " Finance ", Keywords: []string{"Audit", " audit", "IFRS "}})
	require.NoError(t, err)

	p, ok := set.Lookup("FINANCE")
	require.True(t, ok)
	assert.Equal(t, "finance", p.Name)
	assert.Equal(t, []string{"audit", "ifrs"}, p.Keywords)
	assert.Equal(t, []string{"finance"}, set.Names())
	assert.Equal(t, 1, set.Len())
}

func TestDefaultProfilesOrder(t *testing.T) {
	assert.Equal(t, []string{"tech", "medical", "business"}, DefaultProfiles().Names())
}

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine(nil)

	eval := engine.Evaluate("Registered nurse: patient triage, clinical documentation in EMR, 3 years experience")

	assert.Equal(t, "medical", eval.Result.Domain)
	assert.Equal(t, "medical", eval.Detection.Profile.Name)
	assert.False(t, eval.Forced)
	assert.Len(t, eval.Detection.Counts, 3)
	assert.Equal(t, Score("Registered nurse: patient triage, clinical documentation in EMR, 3 years experience", eval.Detection.Profile), eval.Result)
}

func TestEngine_EvaluateAs(t *testing.T) {
	engine := NewEngine(DefaultProfiles())
	text := "Python and SQL for hospital analytics"

	forced, err := engine.EvaluateAs(text, "Medical")
	require.NoError(t, err)
	assert.True(t, forced.Forced)
	assert.Equal(t, "medical", forced.Result.Domain)
	assert.Equal(t, []string{"hospital"}, forced.Result.Signals.MatchedKeywords)
	assert.Equal(t, "tech", forced.Detection.Profile.Name)

	auto, err := engine.EvaluateAs(text, "")
	require.NoError(t, err)
	assert.Equal(t, engine.Evaluate(text), auto)

	_, err = engine.EvaluateAs(text, "astronomy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDomain))
}

func TestPresent(t *testing.T) {
	b := ScoreBreakdown{KeywordRelevance: 12, Achievements: 4, Projects: 8, Experience: 6, Education: 10, Formatting: 10}

	buckets := Present(b)

	require.Len(t, buckets, 5)
	assert.Equal(t, Bucket{Label: BucketKeywordMatch, Score: 18, Max: 40}, buckets[0])
	assert.Equal(t, Bucket{Label: BucketFormatting, Score: 10, Max: 10}, buckets[4])

	sum, maxSum := 0, 0
	for _, bk := range buckets {
		sum += bk.Score
		maxSum += bk.Max
		assert.LessOrEqual(t, bk.Score, bk.Max)
	}
	assert.Equal(t, b.Sum(), sum)
	assert.Equal(t, MaxTotal, maxSum)
}

func TestCategories(t *testing.T) {
	cats := ScoreBreakdown{Education: 5, Formatting: 10}.Categories()

	require.Len(t, cats, 6)
	total := 0
	for _, c := range cats {
		total += c.Max
	}
	assert.Equal(t, MaxTotal, total)
	assert.Equal(t, "keyword_relevance", cats[0].Name)
}
