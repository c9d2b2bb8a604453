package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hafizadha/mrgreedy/internal/model"
)

// ErrDuplicateResumeID reports that an application row with the same
// ResumeID already exists. With sequence-assigned ids this indicates a
// misconfigured sequence rather than a submission race.
var ErrDuplicateResumeID = errors.New("duplicate resume id")

// NextResumeID reserves the next resume id from the database sequence.
func (d *DBinstanceStruct) NextResumeID(ctx context.Context) (int, error) {
	var id int
	if err := d.WithContext(ctx).Raw(`SELECT nextval('resume_sequence')`).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("reserve resume id: %w", err)
	}
	return id, nil
}

// InsertApplication persists one application row.
func (d *DBinstanceStruct) InsertApplication(ctx context.Context, app *model.JobApplication) error {
	if err := d.WithContext(ctx).Create(app).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %d", ErrDuplicateResumeID, app.ResumeID)
		}
		return err
	}
	return nil
}

// GetJobRole fetches one job role by id.
func (d *DBinstanceStruct) GetJobRole(ctx context.Context, id uint) (*model.JobRole, error) {
	var role model.JobRole
	if err := d.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// AllJobRoles lists every job role.
func (d *DBinstanceStruct) AllJobRoles(ctx context.Context) ([]model.JobRole, error) {
	var roles []model.JobRole
	if err := d.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// GetApplication fetches one application row by primary key.
func (d *DBinstanceStruct) GetApplication(ctx context.Context, id uint) (*model.JobApplication, error) {
	var app model.JobApplication
	if err := d.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// AllApplications lists every application row.
func (d *DBinstanceStruct) AllApplications(ctx context.Context) ([]model.JobApplication, error) {
	var apps []model.JobApplication
	if err := d.WithContext(ctx).Order("id ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// ApplicationsByRole lists the applications submitted against one job role.
func (d *DBinstanceStruct) ApplicationsByRole(ctx context.Context, jobRoleID uint) ([]model.JobApplication, error) {
	var apps []model.JobApplication
	if err := d.WithContext(ctx).
		Where("job_role_id = ?", jobRoleID).
		Order("id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// GetJobRequirementCache looks up the cached parse of a job description.
// Returns (nil, nil) on a cache miss.
func (d *DBinstanceStruct) GetJobRequirementCache(ctx context.Context, jobRoleID uint, descriptionHash string) (*model.JobRequirementCache, error) {
	var entry model.JobRequirementCache
	err := d.WithContext(ctx).
		Where("job_role_id = ? AND description_hash = ?", jobRoleID, descriptionHash).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveJobRequirementCache upserts the cached parse for a job description.
func (d *DBinstanceStruct) SaveJobRequirementCache(ctx context.Context, entry *model.JobRequirementCache) error {
	return d.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_role_id"}, {Name: "description_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload"}),
		}).
		Create(entry).Error
}
