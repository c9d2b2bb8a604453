// Package job provides HTTP handlers for job role listings.
package job

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/parser"
	"github.com/hafizadha/mrgreedy/internal/utilities"
)

// PostingParser turns a raw job description into the structured card the
// job board frontend renders.
type PostingParser interface {
	Posting(ctx context.Context, jobTitle, jobDescription string) (*parser.JobPosting, error)
}

// JobController handles job role related endpoints
type JobController struct {
	DB         *database.DBinstanceStruct
	Parser     PostingParser
	Logger     *zap.Logger
	LLMTimeout time.Duration
}

// NewJobController creates a new instance of JobController with the provided
// dependencies.
func NewJobController(db *database.DBinstanceStruct, p PostingParser, log *zap.Logger, llmTimeout time.Duration) *JobController {
	if log == nil {
		log = zap.NewNop()
	}
	return &JobController{
		DB:         db,
		Parser:     p,
		Logger:     log,
		LLMTimeout: llmTimeout,
	}
}

// GetAvailableJobs returns every job role row as stored.
func (j *JobController) GetAvailableJobs(c *gin.Context) {
	roles, err := j.DB.AllJobRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Error fetching job roles: %s", err.Error()),
		})
		return
	}
	if roles == nil {
		roles = []model.JobRole{}
	}
	c.JSON(http.StatusOK, roles)
}

// GetStructuredJobRoles returns every job role parsed into the frontend card
// format. A role whose description fails to parse degrades to a card with a
// placeholder description instead of failing the whole listing.
func (j *JobController) GetStructuredJobRoles(c *gin.Context) {
	roles, err := j.DB.AllJobRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to fetch or process job roles.",
		})
		return
	}

	postings := make([]*parser.JobPosting, 0, len(roles))
	for i := range roles {
		postings = append(postings, j.structureRole(c.Request.Context(), &roles[i]))
	}
	c.JSON(http.StatusOK, postings)
}

func (j *JobController) structureRole(ctx context.Context, role *model.JobRole) *parser.JobPosting {
	id := strconv.FormatUint(uint64(role.ID), 10)

	if role.JobDescription == "" {
		return &parser.JobPosting{
			ID:           id,
			Title:        role.JobRole,
			Company:      "N/A",
			Location:     "N/A",
			Type:         "N/A",
			Experience:   "N/A",
			Salary:       "N/A",
			Description:  "No job description provided.",
			Requirements: []string{},
			Benefits:     []string{},
		}
	}

	parseCtx := ctx
	if j.LLMTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, j.LLMTimeout)
		defer cancel()
	}

	posting, err := j.Parser.Posting(parseCtx, role.JobRole, role.JobDescription)
	if err != nil {
		j.Logger.Warn("could not parse job description",
			zap.Uint("job_role_id", role.ID),
			zap.String("title", role.JobRole),
			zap.Error(err))
		return &parser.JobPosting{
			ID:           id,
			Title:        role.JobRole,
			Company:      "N/A",
			Location:     "N/A",
			Type:         "N/A",
			Experience:   "N/A",
			Salary:       "N/A",
			Description:  "Could not parse job details.",
			Requirements: []string{},
			Benefits:     []string{},
		}
	}

	posting.ID = id
	posting.Title = role.JobRole
	return posting
}
