package model

import (
	"time"
)

// JobApplication is one submitted application: the candidate profile
// extracted from the resume, the four similarity scores against the job
// requirements, and a snapshot of the job description it was scored against.
//
// Column and JSON names are capitalized the way the HR dashboard expects
// them; the profile and score fields are written once per submission and
// never mutated afterwards.
type JobApplication struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Candidate profile, free-text strings extracted by the LLM parser.
	Name          string `gorm:"column:Name;type:text" json:"Name"`
	PhoneNumber   string `gorm:"column:Phone_Number;type:text" json:"Phone_Number"`
	Email         string `gorm:"column:Email;type:text" json:"Email"`
	LinkedinLink  string `gorm:"column:Linkedin_link;type:text" json:"Linkedin_link"`
	PortfolioLink string `gorm:"column:Portfolio_link;type:text" json:"Portfolio_link"`
	Skills        string `gorm:"column:Skills;type:text" json:"Skills"`
	Experience    string `gorm:"column:Experience;type:text" json:"Experience"`
	Education     string `gorm:"column:Education;type:text" json:"Education"`
	Extra         string `gorm:"column:Extra;type:text" json:"Extra"`
	Level         string `gorm:"column:Level;type:text" json:"Level"`

	// Cosine similarities in [-1, 1]. Nullable so historical rows with a
	// missing score still aggregate correctly.
	ExperienceSimilarity *float64 `gorm:"column:Experience_Similarity" json:"Experience_Similarity"`
	EducationSimilarity  *float64 `gorm:"column:Education_Similarity" json:"Education_Similarity"`
	SkillSimilarity      *float64 `gorm:"column:Skill_Similarity" json:"Skill_Similarity"`
	LevelSimilarity      *float64 `gorm:"column:Level_Similarity" json:"Level_Similarity"`

	// JobDesc is a snapshot of the raw job description at scoring time.
	JobDesc string `gorm:"column:Job_Desc;type:text" json:"Job_Desc"`

	// ResumeID keys the PDF blob as "<ResumeID>.pdf" and is the durable link
	// between this row and the stored document. Assigned from a native
	// Postgres sequence, never reused.
	ResumeID int `gorm:"column:ResumeID;uniqueIndex;not null" json:"ResumeID"`

	JobRoleID uint    `gorm:"column:job_role_id;not null;index" json:"job_role_id"`
	JobRole   JobRole `gorm:"foreignKey:JobRoleID;references:ID" json:"-"`

	// Spam / AI-generation analysis is an unimplemented feature stub: the
	// columns exist for the dashboard but nothing computes them yet.
	SpamProbability  *float64 `gorm:"column:spam_probability" json:"spam_probability"`
	AIGeneratedScore *float64 `gorm:"column:ai_generated_score" json:"ai_generated_score"`
	IsAnalyzed       bool     `gorm:"column:is_analyzed;default:false" json:"is_analyzed"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime" json:"created_at"`
}

// TableName keeps the table name used by the HR dashboard frontend.
func (JobApplication) TableName() string {
	return "job_applications"
}

// MatchScore is the composite score: arithmetic mean of the available
// (non-null) similarities scaled to a 0-100 percentage. When no similarity
// is available the composite is defined as 0.0, it is not a division error.
func (a *JobApplication) MatchScore() float64 {
	sims := []*float64{
		a.ExperienceSimilarity,
		a.EducationSimilarity,
		a.SkillSimilarity,
		a.LevelSimilarity,
	}

	var sum float64
	var n int
	for _, s := range sims {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n) * 100
}
