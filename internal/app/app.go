package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"availability-service/internal/availability"
)

type Resolver interface {
	GetAvailableSlots(ctx context.Context, req availability.Request) (*availability.Result, error)
	IsSlotAvailable(ctx context.Context, req availability.SlotCheckRequest) (*availability.SlotCheck, error)
	ResolveWorkingDay(ctx context.Context, tenantID, employeeID, date, tz string) (availability.WorkingDay, error)
}

type ScheduleStore interface {
	WorkSchedules(ctx context.Context, tenantID, employeeID string) ([]availability.WorkSchedule, error)
	Ping(ctx context.Context) error
}

type App struct {
	Resolver        Resolver
	Store           ScheduleStore
	Logger          *zap.Logger
	DefaultBuffer   int
	DefaultTimezone string
}

// NewRouter wires middleware and routes. auth guards every /api route.
func NewRouter(a *App, auth gin.HandlerFunc, limiter Limiter) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(a.Logger))

	router.GET("/healthz", a.HealthHandler)
	router.GET("/readyz", a.ReadyHandler)

	api := router.Group("/api", auth, RateLimit(limiter, a.Logger))
	{
		tenants := api.Group("/tenants/:tenant_id")
		{
			tenants.GET("/availability", a.GetSlotsHandler)
			tenants.GET("/availability/check", a.CheckSlotHandler)
			tenants.GET("/employees/:employee_id/schedules", a.ListSchedulesHandler)
			tenants.GET("/employees/:employee_id/schedule", a.WorkingDayHandler)
		}
	}
	return router
}
