package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hafizadha/mrgreedy/internal/controller/application"
	"github.com/hafizadha/mrgreedy/internal/controller/chat"
	"github.com/hafizadha/mrgreedy/internal/controller/dashboard"
	"github.com/hafizadha/mrgreedy/internal/controller/job"
	"github.com/hafizadha/mrgreedy/internal/middleware"
	"github.com/hafizadha/mrgreedy/internal/utilities"
)

const maxResumeBytes = 10 << 20

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.Default()

	appController := application.NewApplicationController(s.db, s.pipeline, s.blobs, s.logger)
	jobController := job.NewJobController(s.db, s.parser, s.logger, s.cfg.LLMTimeout)
	chatController := chat.NewChatController(s.db, s.blobs, s.gen, s.logger, s.cfg.LLMTimeout, s.cfg.StorageTimeout)
	dashController := dashboard.NewDashboardController(s.db, s.logger)

	r.Use(middleware.RequestID(), middleware.SafeHeader())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if s.cfg.RateLimitPerSec > 0 {
		r.Use(middleware.RateLimiter(s.cfg.RateLimitPerSec))
	}

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/send_job_application", middleware.SizeLimit(maxResumeBytes), appController.SubmitApplication)
	r.GET("/get_resume_pdf", appController.GetResumePDF)
	r.GET("/get_job_application/:id", appController.GetApplication)
	r.GET("/get_all_job_applications", appController.GetAllApplications)
	r.GET("/get_job_application_by_role/:job_role_id", appController.GetApplicationsByRole)

	r.GET("/get_available_jobs", jobController.GetAvailableJobs)

	api := r.Group("/api")
	{
		api.GET("/structured-job-roles", jobController.GetStructuredJobRoles)
		api.POST("/chat", chatController.Chat)
		api.GET("/dashboard_data/:job_role_id", dashController.GetDashboardData)
	}

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *Server) HelloWorldHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Hello World"})
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.db.Health())
}
