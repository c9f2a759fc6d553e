package crmvc

import (
	"context"
	"time"

	crmdto "mini_crm/internal/api/crm/dto"
	crmmodels "mini_crm/internal/api/crm/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardRecentActivities số hoạt động gần nhất trên dashboard
const DashboardRecentActivities int64 = 5

// DashboardStats tổng hợp số liệu cho dashboard.
// tasksDueToday: task đang pending có dueDate trong ngày hiện tại (UTC).
func (m *CrmManager) DashboardStats(ctx context.Context) (*crmdto.CrmDashboardStats, error) {
	total, err := m.Customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := m.Customers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	pendingTasks := ActivityFilter{
		Type:   string(crmmodels.ActivityTypeTask),
		Status: string(crmmodels.ActivityStatusPending),
	}
	pending, err := m.Activities.Count(ctx, pendingTasks)
	if err != nil {
		return nil, err
	}

	dueToday := pendingTasks
	dueToday.DueFrom, dueToday.DueTo = dayBounds(m.now())
	due, err := m.Activities.Count(ctx, dueToday)
	if err != nil {
		return nil, err
	}

	recent, err := m.Activities.Recent(ctx, primitive.NilObjectID, DashboardRecentActivities)
	if err != nil {
		return nil, err
	}
	recentItems, err := m.withCustomerRefs(ctx, recent)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(crmmodels.CustomerStatuses))
	for _, st := range crmmodels.CustomerStatuses {
		counts[string(st)] = byStatus[st]
	}

	return &crmdto.CrmDashboardStats{
		TotalCustomers:    total,
		ActiveLeads:       byStatus[crmmodels.CustomerStatusLead],
		CustomersByStatus: counts,
		PendingTasks:      pending,
		TasksDueToday:     due,
		RecentActivities:  recentItems,
	}, nil
}

// dayBounds trả về [đầu ngày, đầu ngày hôm sau) theo UTC, đơn vị Unix ms
func dayBounds(t time.Time) (int64, int64) {
	start := time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli()
}
