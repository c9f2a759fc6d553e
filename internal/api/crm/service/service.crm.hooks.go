// Package crmvc - Event handler ghi audit log cho thay đổi dữ liệu CRM (OnDataChanged).
package crmvc

import (
	"context"

	"mini_crm/internal/api/events"
	"mini_crm/internal/global"
	"mini_crm/internal/logger"
)

func init() {
	events.OnDataChanged(handleCrmDataChange)
}

// handleCrmDataChange ghi mọi insert/update/delete trên crm_customers, crm_activities vào audit log
func handleCrmDataChange(ctx context.Context, e events.DataChangeEvent) {
	switch e.CollectionName {
	case global.MongoDB_ColNames.CrmCustomers, global.MongoDB_ColNames.CrmActivities:
	default:
		return
	}

	details := map[string]interface{}{}
	if e.Count > 0 {
		details["count"] = e.Count
	}
	if rid, ok := ctx.Value(logger.RequestIDKey).(string); ok && rid != "" {
		details["request_id"] = rid
	}

	documentID := ""
	if !e.DocumentID.IsZero() {
		documentID = e.DocumentID.Hex()
	}
	logger.LogDataChange(e.CollectionName, e.Operation, documentID, details)
}
