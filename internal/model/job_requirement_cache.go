package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobRequirementCache stores the LLM-parsed structured requirements of a job
// description so repeat submissions against an unchanged description skip the
// parse. The hash of the raw description invalidates the entry when the
// description changes.
type JobRequirementCache struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobRoleID       uint           `gorm:"not null;uniqueIndex:idx_job_requirement_cache" json:"job_role_id"`
	DescriptionHash string         `gorm:"not null;uniqueIndex:idx_job_requirement_cache" json:"description_hash"`
	Payload         datatypes.JSON `json:"payload"`
	CreatedAt       time.Time      `gorm:"type:timestamp;autoCreateTime" json:"created_at"`
}
