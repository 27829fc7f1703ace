package http

import (
	"context"

	"agronexus/internal/dataset"
	"agronexus/internal/services"
)

// DashboardServiceInterface defines the service surface the dashboard
// handlers depend on. Kept as an interface so handler tests can stub it.
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, q services.Query) (*services.Snapshot, error)
	Refresh(ctx context.Context, strict bool) (*services.Snapshot, error)
	Season(ctx context.Context) (*dataset.Table, error)
}
