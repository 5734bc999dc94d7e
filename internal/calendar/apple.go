package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"availability-service/internal/availability"
)

// Apple stands in for CalDAV. It reports no busy time for any connection.
type Apple struct {
	logger *zap.Logger
}

func NewApple(opts Options) *Apple {
	return &Apple{logger: opts.withDefaults().Logger}
}

func (a *Apple) FetchEvents(_ context.Context, conn availability.CalendarConnection, _, _ time.Time) ([]availability.ExternalEvent, error) {
	a.logger.Debug("caldav not implemented, treating calendar as free", zap.String("connection_id", conn.ID))
	return []availability.ExternalEvent{}, nil
}
