// Package application provides HTTP handlers for job application operations.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/extract"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/pipeline"
	"github.com/hafizadha/mrgreedy/internal/storage"
	"github.com/hafizadha/mrgreedy/internal/utilities"
)

// Submitter runs one resume submission end to end.
type Submitter interface {
	Submit(ctx context.Context, jobRoleID uint, pdfBytes []byte) (*model.JobApplication, error)
}

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	DB       *database.DBinstanceStruct
	Pipeline Submitter
	Storage  storage.BlobStore
	Logger   *zap.Logger
}

// NewApplicationController creates a new instance of ApplicationController
// with the provided dependencies.
func NewApplicationController(db *database.DBinstanceStruct, p Submitter, blobs storage.BlobStore, log *zap.Logger) *ApplicationController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApplicationController{
		DB:       db,
		Pipeline: p,
		Storage:  blobs,
		Logger:   log,
	}
}

// SubmitApplication accepts a resume PDF as multipart form field "file",
// runs the matching pipeline against the job role named by the
// selected_job_id query parameter, and returns the stored application row.
func (a *ApplicationController) SubmitApplication(c *gin.Context) {
	jobRoleID, err := strconv.ParseUint(c.Query("selected_job_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid selected_job_id: %s", c.Query("selected_job_id")),
		})
		return
	}

	rawFile, err := c.FormFile("file")
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve file: %s", err.Error()),
		})
		return
	}

	if rawFile.Header.Get("Content-Type") != "application/pdf" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Only PDF files are allowed."})
		return
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			a.Logger.Warn("failed to close uploaded file", zap.Error(err))
		}
	}()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return
	}

	app, err := a.Pipeline.Submit(c.Request.Context(), uint(jobRoleID), fileBytes)
	if err != nil {
		a.writeSubmitError(c, uint(jobRoleID), err)
		return
	}

	c.JSON(http.StatusOK, app)
}

func (a *ApplicationController) writeSubmitError(c *gin.Context, jobRoleID uint, err error) {
	var extractErr *extract.Error
	switch {
	case errors.Is(err, pipeline.ErrJobRoleNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: fmt.Sprintf("Job role %d not found", jobRoleID),
		})
	case errors.As(err, &extractErr):
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
	default:
		a.Logger.Error("submission failed", zap.Uint("job_role_id", jobRoleID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: err.Error()})
	}
}

// GetApplication returns one application row by its id.
func (a *ApplicationController) GetApplication(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid application id: %s", c.Param("id")),
		})
		return
	}

	app, err := a.DB.GetApplication(c.Request.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: fmt.Sprintf("Application with ResumeID %d not found", id),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// GetAllApplications returns every application row.
func (a *ApplicationController) GetAllApplications(c *gin.Context) {
	apps, err := a.DB.AllApplications(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Error fetching job applications: %s", err.Error()),
		})
		return
	}
	if apps == nil {
		apps = []model.JobApplication{}
	}
	c.JSON(http.StatusOK, apps)
}

// roleApplication is the per-role listing shape: the job description snapshot
// is omitted and null scores are flattened to -1 so the dashboard table never
// sees nulls.
type roleApplication struct {
	ID                   uint    `json:"id"`
	Name                 string  `json:"Name"`
	PhoneNumber          string  `json:"Phone_Number"`
	Email                string  `json:"Email"`
	LinkedinLink         string  `json:"Linkedin_link"`
	PortfolioLink        string  `json:"Portfolio_link"`
	Skills               string  `json:"Skills"`
	Experience           string  `json:"Experience"`
	Education            string  `json:"Education"`
	Extra                string  `json:"Extra"`
	Level                string  `json:"Level"`
	ExperienceSimilarity float64 `json:"Experience_Similarity"`
	EducationSimilarity  float64 `json:"Education_Similarity"`
	SkillSimilarity      float64 `json:"Skill_Similarity"`
	LevelSimilarity      float64 `json:"Level_Similarity"`
	ResumeID             int     `json:"ResumeID"`
	JobRoleID            uint    `json:"job_role_id"`
	SpamProbability      float64 `json:"spam_probability"`
	AIGeneratedScore     float64 `json:"ai_generated_score"`
	IsAnalyzed           bool    `json:"is_analyzed"`
	CreatedAt            string  `json:"created_at"`
}

// GetApplicationsByRole lists every application submitted against one job
// role.
func (a *ApplicationController) GetApplicationsByRole(c *gin.Context) {
	jobRoleID, err := strconv.ParseUint(c.Param("job_role_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid job_role_id: %s", c.Param("job_role_id")),
		})
		return
	}

	apps, err := a.DB.ApplicationsByRole(c.Request.Context(), uint(jobRoleID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Error fetching job applicants for %d: %s", jobRoleID, err.Error()),
		})
		return
	}

	out := make([]roleApplication, 0, len(apps))
	for i := range apps {
		out = append(out, toRoleApplication(&apps[i]))
	}
	c.JSON(http.StatusOK, out)
}

func toRoleApplication(app *model.JobApplication) roleApplication {
	return roleApplication{
		ID:                   app.ID,
		Name:                 app.Name,
		PhoneNumber:          app.PhoneNumber,
		Email:                app.Email,
		LinkedinLink:         app.LinkedinLink,
		PortfolioLink:        app.PortfolioLink,
		Skills:               app.Skills,
		Experience:           app.Experience,
		Education:            app.Education,
		Extra:                app.Extra,
		Level:                app.Level,
		ExperienceSimilarity: orMinusOne(app.ExperienceSimilarity),
		EducationSimilarity:  orMinusOne(app.EducationSimilarity),
		SkillSimilarity:      orMinusOne(app.SkillSimilarity),
		LevelSimilarity:      orMinusOne(app.LevelSimilarity),
		ResumeID:             app.ResumeID,
		JobRoleID:            app.JobRoleID,
		SpamProbability:      orMinusOne(app.SpamProbability),
		AIGeneratedScore:     orMinusOne(app.AIGeneratedScore),
		IsAnalyzed:           app.IsAnalyzed,
		CreatedAt:            app.CreatedAt.Format("2006-01-02T15:04:05"),
	}
}

func orMinusOne(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}

// GetResumePDF streams the stored resume PDF for the application named by the
// resume_ID query parameter. The parameter is the application row id; the row
// holds the ResumeID that keys the blob.
func (a *ApplicationController) GetResumePDF(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("resume_ID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid resume_ID: %s", c.Query("resume_ID")),
		})
		return
	}

	app, err := a.DB.GetApplication(c.Request.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: fmt.Sprintf("Application with ResumeID %d not found", id),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	objectName := fmt.Sprintf("%d.pdf", app.ResumeID)
	reader, size, err := a.Storage.Download(c.Request.Context(), objectName)
	if errors.Is(err, storage.ErrObjectNotFound) {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: fmt.Sprintf("Resume PDF for ID '%d' not found in storage.", app.ResumeID),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to download file from storage: %s", err.Error()),
		})
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			a.Logger.Warn("failed to close storage reader", zap.Error(err))
		}
	}()

	c.Writer.Header().Set("Content-Disposition", "attachment; filename="+objectName)
	c.Writer.Header().Set("Content-Type", "application/pdf")
	if size > 0 {
		c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
	}
	if _, err := io.Copy(c.Writer, reader); err != nil {
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Failed to send file content",
			})
			return
		}
		c.Abort()
	}
}
