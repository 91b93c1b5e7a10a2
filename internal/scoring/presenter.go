package scoring

// Bucket is a display grouping of one or more rubric categories.
type Bucket struct {
	Label string `json:"label" yaml:"label"`
	Score int    `json:"score" yaml:"score"`
	Max   int    `json:"max" yaml:"max"`
}

// Bucket labels, in display order.
const (
	BucketKeywordMatch = "Keyword Match"
	BucketAchievements = "Achievements"
	BucketProjects     = "Projects"
	BucketEducation    = "Education"
	BucketFormatting   = "Formatting"
)

// Present regroups a breakdown into display buckets. Experience mentions are
// folded into Keyword Match. Presentation only: the total is unaffected.
func Present(b ScoreBreakdown) []Bucket {
	return []Bucket{
		{Label: BucketKeywordMatch, Score: b.KeywordRelevance + b.Experience, Max: KeywordCap + ExperienceCap},
		{Label: BucketAchievements, Score: b.Achievements, Max: AchievementCap},
		{Label: BucketProjects, Score: b.Projects, Max: ProjectCap},
		{Label: BucketEducation, Score: b.Education, Max: EducationBonus},
		{Label: BucketFormatting, Score: b.Formatting, Max: FormattingBaseline},
	}
}

// Category is a single rubric line with its ceiling.
type Category struct {
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
	Max   int    `json:"max" yaml:"max"`
}

// Categories lists the breakdown in rubric order.
func (b ScoreBreakdown) Categories() []Category {
	return []Category{
		{Name: "keyword_relevance", Score: b.KeywordRelevance, Max: KeywordCap},
		{Name: "achievements", Score: b.Achievements, Max: AchievementCap},
		{Name: "projects", Score: b.Projects, Max: ProjectCap},
		{Name: "experience", Score: b.Experience, Max: ExperienceCap},
		{Name: "education", Score: b.Education, Max: EducationBonus},
		{Name: "formatting", Score: b.Formatting, Max: FormattingBaseline},
	}
}
