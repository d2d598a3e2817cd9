package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/service"
	"github.com/fieldops/fieldtrack-backend-go/pkg/response"
)

// AnalyticsHandler handles HTTP requests for trip and stop analytics
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// analyticsParams are the shared query parameters for analytics requests
type analyticsParams struct {
	Timeframe      string `form:"timeframe"`
	Start          int64  `form:"start"` // Unix seconds, custom timeframe only
	End            int64  `form:"end"`
	OrganizationID *int64 `form:"organizationId"`
	BranchID       *int64 `form:"branchId"`
}

func (p *analyticsParams) toQuery(ownerID int64) service.AnalyticsQuery {
	q := service.AnalyticsQuery{
		OwnerID:        ownerID,
		Timeframe:      models.Timeframe(p.Timeframe),
		OrganizationID: p.OrganizationID,
		BranchID:       p.BranchID,
	}
	if p.Timeframe == "" {
		q.Timeframe = models.TimeframeToday
	}
	if p.Start > 0 {
		start := time.Unix(p.Start, 0).UTC()
		q.Start = &start
	}
	if p.End > 0 {
		end := time.Unix(p.End, 0).UTC()
		q.End = &end
	}
	return q
}

// GetUserAnalytics handles GET /api/v1/analytics/users/:id
func (h *AnalyticsHandler) GetUserAnalytics(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	var params analyticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	report, err := h.analyticsService.GetUserAnalytics(c.Request.Context(), params.toQuery(ownerID))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, report)
}

// teamRequest is the POST body for team analytics
type teamRequest struct {
	UserIDs        []int64 `json:"userIds" binding:"required"`
	Timeframe      string  `json:"timeframe"`
	Start          int64   `json:"start"`
	End            int64   `json:"end"`
	OrganizationID *int64  `json:"organizationId"`
	BranchID       *int64  `json:"branchId"`
}

// GetTeamAnalytics handles POST /api/v1/analytics/team
func (h *AnalyticsHandler) GetTeamAnalytics(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	params := analyticsParams{
		Timeframe:      req.Timeframe,
		Start:          req.Start,
		End:            req.End,
		OrganizationID: req.OrganizationID,
		BranchID:       req.BranchID,
	}

	report, err := h.analyticsService.GetTeamAnalytics(c.Request.Context(), req.UserIDs, params.toQuery(0))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, report)
}

// Backfill handles POST /api/v1/tracking/points/backfill
func (h *AnalyticsHandler) Backfill(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "1000")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	summary, err := h.analyticsService.BackfillUngeocoded(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"resolvedPoints": summary.ResolvedPoints,
		"failedPoints":   summary.FailedPoints,
		"totalGroups":    summary.TotalGroups,
		"skippedGroups":  summary.SkippedGroups,
	})
}
