// Package pipeline orchestrates one resume submission end to end: text
// extraction, LLM structuring, similarity scoring, and the durable write of
// blob plus database row.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hafizadha/mrgreedy/internal/extract"
	"github.com/hafizadha/mrgreedy/internal/metrics"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/parser"
	"github.com/hafizadha/mrgreedy/internal/similarity"
	"github.com/hafizadha/mrgreedy/internal/storage"
)

// ErrJobRoleNotFound reports a submission against a job role id that does not
// exist.
var ErrJobRoleNotFound = errors.New("job role not found")

// StoreError reports a failure in the durable-write phase, after analysis
// succeeded.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store application: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is the database surface the pipeline writes through.
type Store interface {
	GetJobRole(ctx context.Context, id uint) (*model.JobRole, error)
	NextResumeID(ctx context.Context) (int, error)
	InsertApplication(ctx context.Context, app *model.JobApplication) error
	GetJobRequirementCache(ctx context.Context, jobRoleID uint, descriptionHash string) (*model.JobRequirementCache, error)
	SaveJobRequirementCache(ctx context.Context, entry *model.JobRequirementCache) error
}

// Timeouts bound each class of external call the pipeline issues. A zero
// value means no additional deadline beyond the caller's context.
type Timeouts struct {
	LLM     time.Duration
	Embed   time.Duration
	Storage time.Duration
}

// Pipeline runs submissions. All collaborators are injected; the pipeline
// itself is stateless and safe for concurrent use.
type Pipeline struct {
	store    Store
	blobs    storage.BlobStore
	parser   *parser.Parser
	engine   *similarity.Engine
	logger   *zap.Logger
	timeouts Timeouts

	// Swappable for tests that cannot carry a real PDF.
	extractText func([]byte) (string, error)
}

func New(store Store, blobs storage.BlobStore, p *parser.Parser, engine *similarity.Engine, log *zap.Logger, timeouts Timeouts) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		store:       store,
		blobs:       blobs,
		parser:      p,
		engine:      engine,
		logger:      log,
		timeouts:    timeouts,
		extractText: extract.Text,
	}
}

// Submit processes one uploaded resume PDF against a job role and returns the
// persisted application row.
//
// The analysis phase (extract, parse, score) has no side effects; the write
// phase uploads the blob first and inserts the row second, deleting the blob
// again if the insert fails so storage never holds a PDF with no row.
func (p *Pipeline) Submit(ctx context.Context, jobRoleID uint, pdfBytes []byte) (*model.JobApplication, error) {
	started := time.Now()
	app, err := p.submit(ctx, jobRoleID, pdfBytes)
	metrics.ObservePipelineDuration(time.Since(started))
	if err != nil {
		metrics.RecordSubmission("error")
		return nil, err
	}
	metrics.RecordSubmission("ok")
	return app, nil
}

func (p *Pipeline) submit(ctx context.Context, jobRoleID uint, pdfBytes []byte) (*model.JobApplication, error) {
	role, err := p.store.GetJobRole(ctx, jobRoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrJobRoleNotFound, jobRoleID)
		}
		metrics.RecordStageError("lookup_role")
		return nil, fmt.Errorf("lookup job role %d: %w", jobRoleID, err)
	}

	resumeText, err := p.extractText(pdfBytes)
	if err != nil {
		metrics.RecordStageError("extract")
		return nil, err
	}

	requirements, err := p.jobRequirements(ctx, role)
	if err != nil {
		metrics.RecordStageError("parse_job")
		return nil, err
	}

	llmCtx, cancel := p.withTimeout(ctx, p.timeouts.LLM)
	candidate, err := p.parser.Candidate(llmCtx, resumeText)
	cancel()
	if err != nil {
		metrics.RecordStageError("parse_candidate")
		return nil, err
	}

	app := &model.JobApplication{
		Name:          candidate["Name"],
		PhoneNumber:   candidate["Phone_Number"],
		Email:         candidate["Email"],
		LinkedinLink:  candidate["Linkedin_link"],
		PortfolioLink: candidate["Portfolio_link"],
		Skills:        candidate["Skills"],
		Experience:    candidate["Experience"],
		Education:     candidate["Education"],
		Extra:         candidate["Extra"],
		Level:         candidate["Level"],
		JobDesc:       role.JobDescription,
		JobRoleID:     role.ID,
	}

	if err := p.score(ctx, app, candidate, requirements); err != nil {
		metrics.RecordStageError("similarity")
		return nil, err
	}

	resumeID, err := p.store.NextResumeID(ctx)
	if err != nil {
		metrics.RecordStageError("reserve_id")
		return nil, &StoreError{Op: "reserve resume id", Err: err}
	}
	app.ResumeID = resumeID

	if err := p.persist(ctx, app, pdfBytes); err != nil {
		metrics.RecordStageError("persist")
		return nil, err
	}

	p.logger.Info("application stored",
		zap.Uint("job_role_id", role.ID),
		zap.Int("resume_id", app.ResumeID),
		zap.Uint("application_id", app.ID))
	return app, nil
}

// jobRequirements returns the structured requirement facets for a role,
// consulting the parse cache keyed by the description's hash. A cache write
// failure is logged, never fatal: the parse result is already in hand.
func (p *Pipeline) jobRequirements(ctx context.Context, role *model.JobRole) (map[string]string, error) {
	hash := descriptionHash(role.JobDescription)

	entry, err := p.store.GetJobRequirementCache(ctx, role.ID, hash)
	if err != nil {
		p.logger.Warn("job requirement cache lookup failed", zap.Uint("job_role_id", role.ID), zap.Error(err))
	}
	if entry != nil {
		var cached map[string]string
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			return cached, nil
		}
		p.logger.Warn("discarding undecodable job requirement cache entry", zap.Uint("job_role_id", role.ID))
	}

	llmCtx, cancel := p.withTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	requirements, err := p.parser.JobRequirements(llmCtx, role.JobRole, role.JobDescription)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(requirements)
	if err == nil {
		saveErr := p.store.SaveJobRequirementCache(ctx, &model.JobRequirementCache{
			JobRoleID:       role.ID,
			DescriptionHash: hash,
			Payload:         datatypes.JSON(payload),
		})
		if saveErr != nil {
			p.logger.Warn("job requirement cache write failed", zap.Uint("job_role_id", role.ID), zap.Error(saveErr))
		}
	}
	return requirements, nil
}

func (p *Pipeline) score(ctx context.Context, app *model.JobApplication, candidate, requirements map[string]string) error {
	facets := []struct {
		field string
		dest  **float64
	}{
		{"Experience", &app.ExperienceSimilarity},
		{"Education", &app.EducationSimilarity},
		{"Skills", &app.SkillSimilarity},
		{"Level", &app.LevelSimilarity},
	}

	for _, f := range facets {
		embedCtx, cancel := p.withTimeout(ctx, p.timeouts.Embed)
		score, err := p.engine.Score(embedCtx, candidate[f.field], requirements[f.field])
		cancel()
		if err != nil {
			return fmt.Errorf("score %s: %w", f.field, err)
		}
		s := score
		*f.dest = &s
	}
	return nil
}

// persist is the two-step durable write run as a compensated saga: if the row
// insert fails the already-uploaded blob is removed again.
func (p *Pipeline) persist(ctx context.Context, app *model.JobApplication, pdfBytes []byte) error {
	objectName := fmt.Sprintf("%d.pdf", app.ResumeID)

	return (&saga{logger: p.logger}).run(ctx, []step{
		{
			name: "upload_blob",
			run: func(ctx context.Context) error {
				uploadCtx, cancel := p.withTimeout(ctx, p.timeouts.Storage)
				defer cancel()
				return p.blobs.Upload(uploadCtx, objectName, bytes.NewReader(pdfBytes))
			},
			compensate: func(ctx context.Context) error {
				return p.blobs.Delete(ctx, objectName)
			},
		},
		{
			name: "insert_row",
			run: func(ctx context.Context) error {
				return p.store.InsertApplication(ctx, app)
			},
		},
	})
}

func (p *Pipeline) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func descriptionHash(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}
