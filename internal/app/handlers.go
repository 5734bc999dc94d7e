package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"availability-service/internal/availability"
)

type slotsQuery struct {
	Date            string `form:"date" binding:"required,datetime=2006-01-02"`
	ServiceID       string `form:"service_id" binding:"required"`
	EmployeeID      string `form:"employee_id"`
	DurationMinutes int    `form:"duration_minutes" binding:"gte=0,lte=1440"`
	BufferMinutes   *int   `form:"buffer_minutes" binding:"omitempty,gte=0,lte=1440"`
	Timezone        string `form:"timezone" binding:"omitempty,timezone"`
	IncludeExternal bool   `form:"include_external"`
}

// GET /api/tenants/:tenant_id/availability
func (a *App) GetSlotsHandler(c *gin.Context) {
	var q slotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.badRequest(c, err)
		return
	}
	buffer := a.DefaultBuffer
	if q.BufferMinutes != nil {
		buffer = *q.BufferMinutes
	}

	res, err := a.Resolver.GetAvailableSlots(c.Request.Context(), availability.Request{
		TenantID:                 c.Param("tenant_id"),
		Date:                     q.Date,
		ServiceID:                q.ServiceID,
		ServiceDuration:          q.DurationMinutes,
		EmployeeID:               q.EmployeeID,
		BufferTime:               buffer,
		Timezone:                 q.Timezone,
		IncludeExternalCalendars: q.IncludeExternal,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	failed := res.SourcesFailed
	if failed == nil {
		failed = []availability.SourceFailure{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":           q.Date,
		"service_id":     q.ServiceID,
		"timezone":       a.timezone(q.Timezone),
		"slots":          res.Slots,
		"partial":        res.Partial,
		"sources_failed": failed,
	})
}

type checkQuery struct {
	Date            string `form:"date" binding:"required,datetime=2006-01-02"`
	Time            string `form:"time" binding:"required,hhmm"`
	EmployeeID      string `form:"employee_id" binding:"required"`
	DurationMinutes int    `form:"duration_minutes" binding:"required,gt=0,lte=1440"`
	Timezone        string `form:"timezone" binding:"omitempty,timezone"`
	IncludeExternal bool   `form:"include_external"`
}

// GET /api/tenants/:tenant_id/availability/check
func (a *App) CheckSlotHandler(c *gin.Context) {
	var q checkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.badRequest(c, err)
		return
	}

	res, err := a.Resolver.IsSlotAvailable(c.Request.Context(), availability.SlotCheckRequest{
		TenantID:                 c.Param("tenant_id"),
		EmployeeID:               q.EmployeeID,
		Date:                     q.Date,
		Time:                     q.Time,
		DurationMinutes:          q.DurationMinutes,
		Timezone:                 q.Timezone,
		IncludeExternalCalendars: q.IncludeExternal,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/tenants/:tenant_id/employees/:employee_id/schedules
func (a *App) ListSchedulesHandler(c *gin.Context) {
	schedules, err := a.Store.WorkSchedules(c.Request.Context(), c.Param("tenant_id"), c.Param("employee_id"))
	if errors.Is(err, availability.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

type workingDayQuery struct {
	Date     string `form:"date" binding:"required,datetime=2006-01-02"`
	Timezone string `form:"timezone" binding:"omitempty,timezone"`
}

// GET /api/tenants/:tenant_id/employees/:employee_id/schedule?date=
func (a *App) WorkingDayHandler(c *gin.Context) {
	var q workingDayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.badRequest(c, err)
		return
	}
	wd, err := a.Resolver.ResolveWorkingDay(c.Request.Context(), c.Param("tenant_id"), c.Param("employee_id"), q.Date, q.Timezone)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wd)
}

func (a *App) timezone(requested string) string {
	if requested != "" {
		return requested
	}
	return a.DefaultTimezone
}

func (a *App) badRequest(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if field := bindingField(err); field != "" {
		body["field"] = field
	}
	c.JSON(http.StatusBadRequest, body)
}

func (a *App) fail(c *gin.Context, err error) {
	var ve *availability.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.Logger.Info("request abandoned", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		a.Logger.Error("availability lookup failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
