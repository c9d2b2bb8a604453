package model

import (
	"time"

	"github.com/lib/pq"
)

// JobRole represents an open position that candidates can apply to.
// The raw description is the source of truth; structured requirements are
// derived from it by the LLM parser and cached separately.
type JobRole struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobRole        string         `gorm:"column:job_role;type:text;not null" json:"job_role"`
	JobDescription string         `gorm:"column:job_description;type:text" json:"job_description"`
	RequiredSkills *string        `gorm:"column:required_skills;type:text" json:"required_skills"`
	Tags           pq.StringArray `gorm:"type:text[]" json:"tags"`
	CreatedAt      time.Time      `gorm:"type:timestamp;autoCreateTime" json:"created_at"`
}

// TableName keeps the table name used by the HR dashboard frontend.
func (JobRole) TableName() string {
	return "job_role"
}
