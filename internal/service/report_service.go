package service

import (
	"context"

	"meal-order-service/internal/models"
	"meal-order-service/internal/util"
)

// ReportStore computes read-only projections over the order ledger
type ReportStore interface {
	DepartmentReport(ctx context.Context) ([]models.DepartmentReport, error)
	MenuItemReport(ctx context.Context) ([]models.MenuItemReport, error)
}

// ReportService exposes sales report projections. No state, no side
// effects; safe to recompute on every call.
type ReportService struct {
	store ReportStore
}

// NewReportService creates a new report service
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// DepartmentReport aggregates orders by the ordering user's department
func (s *ReportService) DepartmentReport(ctx context.Context) ([]models.DepartmentReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.DepartmentReport")
	defer span.End()
	return s.store.DepartmentReport(ctx)
}

// MenuItemReport aggregates order items by menu item, highest revenue first
func (s *ReportService) MenuItemReport(ctx context.Context) ([]models.MenuItemReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.MenuItemReport")
	defer span.End()
	return s.store.MenuItemReport(ctx)
}
