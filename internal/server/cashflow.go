package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cashflowdomain "github.com/groundplan/groundplan/internal/cashflow/domain"
	"github.com/shopspring/decimal"
)

type cashFlowResponse struct {
	ProjectID  string                        `json:"project_id"`
	PeriodType cashflowdomain.PeriodType     `json:"period_type"`
	Buckets    []cashflowdomain.PeriodBucket `json:"buckets"`
}

func (s *Server) getProjectCashFlow(c *gin.Context) {
	projectID := c.Param("project_id")

	start, err := parseDateParam(c.Query("start"))
	if err != nil {
		AbortWithError(c, cashflowdomain.ErrInvalidDateRange)
		return
	}
	end, err := parseDateParam(c.Query("end"))
	if err != nil {
		AbortWithError(c, cashflowdomain.ErrInvalidDateRange)
		return
	}

	periodType := cashflowdomain.PeriodTypeMonthly
	if raw := c.Query("period_type"); raw != "" {
		periodType = cashflowdomain.PeriodType(raw)
	}

	buckets, err := s.cashflowSvc.CalculateProjectCashFlow(c.Request.Context(), cashflowdomain.CalculateRequest{
		ProjectID:  projectID,
		Start:      start,
		End:        end,
		PeriodType: periodType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if c.Query("cumulative") == "true" {
		opening := decimal.Zero
		if raw := c.Query("opening_balance"); raw != "" {
			opening, err = decimal.NewFromString(raw)
			if err != nil {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
		}
		buckets = s.cashflowSvc.CalculateCumulativeCashFlow(buckets, opening)
	}

	c.JSON(http.StatusOK, cashFlowResponse{
		ProjectID:  projectID,
		PeriodType: periodType,
		Buckets:    buckets,
	})
}

type saveMonthlySnapshotRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required"`
}

func (s *Server) saveMonthlySnapshot(c *gin.Context) {
	var req saveMonthlySnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	snapshot, err := s.cashflowSvc.SaveMonthlySnapshot(c.Request.Context(), c.Param("project_id"), req.Year, time.Month(req.Month))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

type saveWeeklySnapshotRequest struct {
	WeekStart string `json:"week_start" binding:"required"`
}

func (s *Server) saveWeeklySnapshot(c *gin.Context) {
	var req saveWeeklySnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	weekStart, err := parseDateParam(req.WeekStart)
	if err != nil {
		AbortWithError(c, cashflowdomain.ErrInvalidWeekStart)
		return
	}

	snapshot, err := s.cashflowSvc.SaveWeeklySnapshot(c.Request.Context(), c.Param("project_id"), weekStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) listSnapshots(c *gin.Context) {
	var periodType *cashflowdomain.PeriodType
	if raw := c.Query("period_type"); raw != "" {
		pt := cashflowdomain.PeriodType(raw)
		periodType = &pt
	}

	snapshots, err := s.cashflowSvc.ListSnapshots(c.Request.Context(), c.Param("project_id"), periodType)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// parseDateParam accepts RFC 3339 timestamps and bare dates.
func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
