package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/pipeline"
	"github.com/hafizadha/mrgreedy/internal/storage"
	"github.com/hafizadha/mrgreedy/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	teardown, db, err := database.GetTestDB()
	if err != nil {
		log.Fatalf("Failed to set up test database: %v", err)
	}
	testDB = db

	gin.SetMode(gin.TestMode)
	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("Failed to tear down test database: %v", err)
		}
	}
	os.Exit(code)
}

type fakeSubmitter struct {
	app       *model.JobApplication
	err       error
	jobRoleID uint
	pdfBytes  []byte
}

func (f *fakeSubmitter) Submit(_ context.Context, jobRoleID uint, pdfBytes []byte) (*model.JobApplication, error) {
	f.jobRoleID = jobRoleID
	f.pdfBytes = pdfBytes
	if f.err != nil {
		return nil, f.err
	}
	return f.app, nil
}

func newRouter(ctrl *ApplicationController) *gin.Engine {
	r := gin.New()
	r.POST("/send_job_application", ctrl.SubmitApplication)
	r.GET("/get_resume_pdf", ctrl.GetResumePDF)
	r.GET("/get_job_application/:id", ctrl.GetApplication)
	r.GET("/get_all_job_applications", ctrl.GetAllApplications)
	r.GET("/get_job_application_by_role/:job_role_id", ctrl.GetApplicationsByRole)
	return r
}

// insertApplication stores one row for the backend role with the given
// similarity scores.
func insertApplication(t *testing.T, sims *float64) *model.JobApplication {
	t.Helper()

	resumeID, err := testDB.NextResumeID(context.Background())
	require.NoError(t, err)

	app := &model.JobApplication{
		Name:                 "Jane Tan",
		Email:                "jane@example.com",
		Skills:               "Go, SQL",
		Experience:           "Backend services",
		Education:            "BSc Computer Science",
		Level:                "entry level",
		JobDesc:              database.TestJobRoleBackend.JobDescription,
		ResumeID:             resumeID,
		JobRoleID:            database.TestJobRoleBackend.ID,
		ExperienceSimilarity: sims,
		EducationSimilarity:  sims,
		SkillSimilarity:      sims,
		LevelSimilarity:      sims,
	}
	require.NoError(t, testDB.InsertApplication(context.Background(), app))
	return app
}

func TestSubmitApplication_RejectsNonPDF(t *testing.T) {
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	endpoint := fmt.Sprintf("/send_job_application?selected_job_id=%d", database.TestJobRoleBackend.ID)
	rec, resp := testutil.MakeFileRequest([]byte("plain text"), "file", "resume.txt", "text/plain", r, endpoint)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only PDF files are allowed.", resp["error"])
}

func TestSubmitApplication_InvalidJobID(t *testing.T) {
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, resp := testutil.MakeFileRequest([]byte("%PDF"), "file", "resume.pdf", "application/pdf", r, "/send_job_application?selected_job_id=abc")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "Invalid selected_job_id")
}

func TestSubmitApplication_UnknownJobRole(t *testing.T) {
	submitter := &fakeSubmitter{err: fmt.Errorf("%w: 999", pipeline.ErrJobRoleNotFound)}
	ctrl := NewApplicationController(testDB, submitter, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, resp := testutil.MakeFileRequest([]byte("%PDF"), "file", "resume.pdf", "application/pdf", r, "/send_job_application?selected_job_id=999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp["error"], "not found")
}

func TestSubmitApplication_Success(t *testing.T) {
	submitter := &fakeSubmitter{app: &model.JobApplication{Name: "Jane Tan", ResumeID: 7}}
	ctrl := NewApplicationController(testDB, submitter, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	pdfBytes := []byte("%PDF-1.4 fake body")
	endpoint := fmt.Sprintf("/send_job_application?selected_job_id=%d", database.TestJobRoleBackend.ID)
	rec, resp := testutil.MakeFileRequest(pdfBytes, "file", "resume.pdf", "application/pdf", r, endpoint)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Tan", resp["Name"])
	assert.Equal(t, database.TestJobRoleBackend.ID, submitter.jobRoleID)
	assert.Equal(t, pdfBytes, submitter.pdfBytes)
}

func TestGetApplication_NotFound(t *testing.T) {
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, resp := testutil.MakeJSONRequest(nil, r, "/get_job_application/99999", http.MethodGet)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp["error"], "not found")
}

func TestGetApplication_Found(t *testing.T) {
	app := insertApplication(t, testutil.Float64Ptr(0.8))
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, resp := testutil.MakeJSONRequest(nil, r, fmt.Sprintf("/get_job_application/%d", app.ID), http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Tan", resp["Name"])
	assert.Equal(t, float64(app.ResumeID), resp["ResumeID"])
}

func TestGetAllApplications(t *testing.T) {
	insertApplication(t, testutil.Float64Ptr(0.5))
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, _ := testutil.MakeJSONRequest(nil, r, "/get_all_job_applications", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.NotEmpty(t, rows)
}

func TestGetApplicationsByRole_FlattensNulls(t *testing.T) {
	app := insertApplication(t, nil)
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	endpoint := fmt.Sprintf("/get_job_application_by_role/%d", database.TestJobRoleBackend.ID)
	rec, _ := testutil.MakeJSONRequest(nil, r, endpoint, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.NotEmpty(t, rows)

	var found bool
	for _, row := range rows {
		if row["ResumeID"] == float64(app.ResumeID) {
			found = true
			// The job description snapshot is omitted and null scores
			// flattened to -1.
			assert.NotContains(t, row, "Job_Desc")
			assert.Equal(t, float64(-1), row["Experience_Similarity"])
			assert.Equal(t, float64(-1), row["spam_probability"])
		}
	}
	assert.True(t, found)
}

func TestGetApplicationsByRole_EmptyRole(t *testing.T) {
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	endpoint := fmt.Sprintf("/get_job_application_by_role/%d", database.TestJobRoleNoDesc.ID)
	rec, _ := testutil.MakeJSONRequest(nil, r, endpoint, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetResumePDF(t *testing.T) {
	app := insertApplication(t, testutil.Float64Ptr(0.9))
	blobs := storage.NewMemoryStore()
	pdfBytes := []byte("%PDF-1.4 stored resume")
	require.NoError(t, blobs.Upload(context.Background(), fmt.Sprintf("%d.pdf", app.ResumeID), bytes.NewReader(pdfBytes)))

	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, blobs, nil)
	r := newRouter(ctrl)

	rec, _ := testutil.MakeJSONRequest(nil, r, fmt.Sprintf("/get_resume_pdf?resume_ID=%d", app.ID), http.MethodGet)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, pdfBytes, rec.Body.Bytes())
}

func TestGetResumePDF_BlobMissing(t *testing.T) {
	app := insertApplication(t, testutil.Float64Ptr(0.9))
	ctrl := NewApplicationController(testDB, &fakeSubmitter{}, storage.NewMemoryStore(), nil)
	r := newRouter(ctrl)

	rec, resp := testutil.MakeJSONRequest(nil, r, fmt.Sprintf("/get_resume_pdf?resume_ID=%d", app.ID), http.MethodGet)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, resp["error"], "not found in storage")
}
