// Package dashboard aggregates per-role application statistics for the HR
// dashboard.
package dashboard

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hafizadha/mrgreedy/internal/database"
	"github.com/hafizadha/mrgreedy/internal/model"
	"github.com/hafizadha/mrgreedy/internal/utilities"
)

// DistributionItem is one bucket of the match score histogram.
type DistributionItem struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// EducationItem is one education category with its applicant count.
type EducationItem struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TimeItem is the number of applications received on one calendar day.
type TimeItem struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ApplicantItem is one entry of the top-applicants ranking.
type ApplicantItem struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	MatchScore float64 `json:"match_score"`
}

// Data is the full dashboard payload for one job role.
type Data struct {
	TotalApplicants        int                `json:"total_applicants"`
	AverageMatchScore      float64            `json:"average_match_score"`
	PotentialSpamCount     int                `json:"potential_spam_count"`
	MatchScoreDistribution []DistributionItem `json:"match_score_distribution"`
	EducationBreakdown     []EducationItem    `json:"education_breakdown"`
	ApplicationsOverTime   []TimeItem         `json:"applications_over_time"`
	Top10Applicants        []ApplicantItem    `json:"top_10_applicants"`
}

var distributionLabels = []string{"0-20%", "21-40%", "41-60%", "61-80%", "81-100%"}

// educationCategories maps a display category to the keywords that assign an
// applicant's free-text education to it. First match wins, in this order.
var educationCategories = []struct {
	name     string
	keywords []string
}{
	{"Computer Science", []string{"computer science", "informatics", "software engineering", "artificial intelligence", "data science", "information system"}},
	{"Engineering", []string{"engineering", "electrical", "network", "telecommunications", "mechanical", "civil"}},
	{"Business", []string{"business", "management", "mba", "marketing", "finance", "accounting"}},
	{"Mathematics & Statistics", []string{"mathematics", "statistics", "actuarial"}},
}

const fallbackCategory = "Other / Not Specified"

// DashboardController handles the dashboard aggregation endpoint
type DashboardController struct {
	DB     *database.DBinstanceStruct
	Logger *zap.Logger
}

// NewDashboardController creates a new instance of DashboardController with
// the provided database connection.
func NewDashboardController(db *database.DBinstanceStruct, log *zap.Logger) *DashboardController {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardController{DB: db, Logger: log}
}

// GetDashboardData aggregates the applications of one job role into the
// dashboard payload. A role with no applications yields a zeroed payload with
// empty collections, not an error.
func (d *DashboardController) GetDashboardData(c *gin.Context) {
	jobRoleID, err := strconv.ParseUint(c.Param("job_role_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid job_role_id: %s", c.Param("job_role_id")),
		})
		return
	}

	apps, err := d.DB.ApplicationsByRole(c.Request.Context(), uint(jobRoleID))
	if err != nil {
		d.Logger.Error("dashboard aggregation failed", zap.Uint64("job_role_id", jobRoleID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate dashboard data: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, Aggregate(apps))
}

// Aggregate computes the dashboard payload from a role's application rows.
func Aggregate(apps []model.JobApplication) *Data {
	data := &Data{
		MatchScoreDistribution: emptyDistribution(),
		EducationBreakdown:     []EducationItem{},
		ApplicationsOverTime:   []TimeItem{},
		Top10Applicants:        []ApplicantItem{},
	}
	if len(apps) == 0 {
		return data
	}

	data.TotalApplicants = len(apps)

	var scoreSum float64
	educationCounts := map[string]int{}
	dayCounts := map[string]int{}

	for i := range apps {
		app := &apps[i]
		score := app.MatchScore()
		scoreSum += score

		data.MatchScoreDistribution[bucketIndex(score)].Count++

		if app.SpamProbability != nil && *app.SpamProbability*100 > 70 {
			data.PotentialSpamCount++
		}

		educationCounts[ClassifyEducation(app.Education)]++
		dayCounts[app.CreatedAt.Format("2006-01-02")]++
	}

	data.AverageMatchScore = math.Round(scoreSum/float64(len(apps))*100) / 100
	data.EducationBreakdown = sortedEducation(educationCounts)
	data.ApplicationsOverTime = sortedDays(dayCounts)
	data.Top10Applicants = topApplicants(apps, 10)
	return data
}

// ClassifyEducation assigns a free-text education string to a dashboard
// category by keyword match.
func ClassifyEducation(education string) string {
	if education == "" {
		return fallbackCategory
	}
	lower := strings.ToLower(education)
	for _, cat := range educationCategories {
		for _, keyword := range cat.keywords {
			if strings.Contains(lower, keyword) {
				return cat.name
			}
		}
	}
	return fallbackCategory
}

func emptyDistribution() []DistributionItem {
	dist := make([]DistributionItem, len(distributionLabels))
	for i, label := range distributionLabels {
		dist[i] = DistributionItem{Range: label}
	}
	return dist
}

// bucketIndex places a 0-100 score into half-open buckets [0,20), [20,40),
// [40,60), [60,80), [80,101).
func bucketIndex(score float64) int {
	switch {
	case score < 20:
		return 0
	case score < 40:
		return 1
	case score < 60:
		return 2
	case score < 80:
		return 3
	default:
		return 4
	}
}

func sortedEducation(counts map[string]int) []EducationItem {
	items := make([]EducationItem, 0, len(counts))
	for category, count := range counts {
		items = append(items, EducationItem{Category: category, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Category < items[j].Category
	})
	return items
}

func sortedDays(counts map[string]int) []TimeItem {
	items := make([]TimeItem, 0, len(counts))
	for date, count := range counts {
		items = append(items, TimeItem{Date: date, Count: count})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date < items[j].Date })
	return items
}

func topApplicants(apps []model.JobApplication, limit int) []ApplicantItem {
	items := make([]ApplicantItem, 0, len(apps))
	for i := range apps {
		items = append(items, ApplicantItem{
			ID:         apps[i].ID,
			Name:       apps[i].Name,
			MatchScore: apps[i].MatchScore(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].MatchScore > items[j].MatchScore })
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
