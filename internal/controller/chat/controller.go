// Package chat provides the HR assistant endpoint: free-form questions about
// one candidate, answered by the LLM from the stored analysis and resume text.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hafizadha/mrgreedy/internal/ai"
	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/extract"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/storage"
	"github.com/hafizadha/mrgreedy/internal/utilities"
)

// Request is the chat request body. ResumeID arrives as a string from the
// frontend even though the row id is numeric.
type Request struct {
	Input    string `json:"input" binding:"required"`
	ResumeID string `json:"resume_id" binding:"required"`
}

// Response carries the generated answer.
type Response struct {
	GeneratedResponse string `json:"generated_response"`
}

// ChatController handles the candidate chat endpoint
type ChatController struct {
	DB             *database.DBinstanceStruct
	Storage        storage.BlobStore
	Generator      ai.Generator
	Logger         *zap.Logger
	LLMTimeout     time.Duration
	StorageTimeout time.Duration
}

// NewChatController creates a new instance of ChatController with the
// provided dependencies.
func NewChatController(db *database.DBinstanceStruct, blobs storage.BlobStore, gen ai.Generator, log *zap.Logger, llmTimeout, storageTimeout time.Duration) *ChatController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatController{
		DB:             db,
		Storage:        blobs,
		Generator:      gen,
		Logger:         log,
		LLMTimeout:     llmTimeout,
		StorageTimeout: storageTimeout,
	}
}

// Chat answers an HR user's question about one candidate. The prompt is built
// from the stored analysis plus the resume text; when the PDF cannot be
// retrieved or parsed the prompt degrades to the database fields instead of
// failing the request.
func (h *ChatController) Chat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	id, err := strconv.ParseUint(req.ResumeID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid ResumeID format. Must be a number: '%s'", req.ResumeID),
		})
		return
	}

	app, err := h.DB.GetApplication(c.Request.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: fmt.Sprintf("Candidate data for ResumeID '%s' not found.", req.ResumeID),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	resumeText := h.resumeText(c.Request.Context(), app)
	prompt := buildPrompt(req, app, resumeText)

	llmCtx := c.Request.Context()
	if h.LLMTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(llmCtx, h.LLMTimeout)
		defer cancel()
	}

	answer, err := h.Generator.GenerateContent(llmCtx, prompt)
	if err != nil {
		h.Logger.Error("chat generation failed", zap.Uint("application_id", app.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("An unexpected error occurred while processing your chat request: %s", err.Error()),
		})
		return
	}
	if strings.TrimSpace(answer) == "" {
		answer = "The model generated an empty response. Please try rephrasing your question or check the provided candidate data."
	}

	c.JSON(http.StatusOK, Response{GeneratedResponse: answer})
}

// resumeText downloads and extracts the candidate's PDF. Failures come back
// as a fallback sentence for the prompt, never as a request error.
func (h *ChatController) resumeText(ctx context.Context, app *model.JobApplication) string {
	objectName := fmt.Sprintf("%d.pdf", app.ResumeID)

	if h.StorageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.StorageTimeout)
		defer cancel()
	}

	reader, _, err := h.Storage.Download(ctx, objectName)
	if err != nil {
		return h.resumeTextFallback(objectName, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			h.Logger.Warn("failed to close storage reader", zap.Error(err))
		}
	}()

	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return h.resumeTextFallback(objectName, err)
	}

	text, err := extract.Text(pdfBytes)
	if err != nil {
		return h.resumeTextFallback(objectName, err)
	}
	if text == "" {
		return "Resume text was extracted but appears to be empty."
	}
	return text
}

func (h *ChatController) resumeTextFallback(objectName string, err error) string {
	h.Logger.Warn("resume text unavailable for chat", zap.String("object", objectName), zap.Error(err))
	return fmt.Sprintf(
		"Full resume text could not be retrieved or parsed. (File sought: '%s'). "+
			"Please ask about the analyzed scores and skills available from the database.",
		objectName)
}

func buildPrompt(req Request, app *model.JobApplication, resumeText string) string {
	matchScore := fmt.Sprintf("%.2f", app.MatchScore())

	aiScore := "N/A"
	if app.AIGeneratedScore != nil {
		aiScore = fmt.Sprintf("%.2f", *app.AIGeneratedScore)
	} else if !app.IsAnalyzed {
		aiScore = "Not yet analyzed"
	}

	skills := app.Skills
	if skills == "" {
		skills = "Not specified in the analysis"
	}
	jobDesc := app.JobDesc
	if jobDesc == "" {
		jobDesc = "Not specified in the analysis"
	}

	return fmt.Sprintf(`You are an expert HR Resume Analysis Assistant.
Your primary function is to answer questions about a specific candidate's resume and its analysis, based *solely* on the information provided to you below.
Do not make assumptions, invent information, or use any external knowledge beyond what is given here.
If the answer cannot be found in the provided information, clearly state that the information is not available in the resume or analysis provided.
Be concise and professional in your responses.

Candidate Information (ID: %s):
---
Full Resume Text:
%s
---
Analysis Scores:
- Composite Match Score (average of similarities): %s%%
- AI Generated Content Percentage: %s%%
- Spam Score: N/A (not available in current analysis)
---
Extracted Skills:
%s
---

Job Role Information:
%s
---

HR User's Question:
"%s"

Based on the information provided above, please answer the HR User's question.

Your Answer:`,
		req.ResumeID, resumeText, matchScore, aiScore, skills, jobDesc, req.Input)
}
