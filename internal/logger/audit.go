package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// LogDataChange ghi một thay đổi dữ liệu vào audit log
func LogDataChange(collection, operation, documentID string, details map[string]interface{}) {
	fields := logrus.Fields{
		"action":      "data_" + operation,
		"collection":  collection,
		"resource_id": documentID,
		"timestamp":   time.Now().UTC(),
	}
	if len(details) > 0 {
		fields["details"] = details
	}
	GetAuditLogger().WithFields(fields).Info("Audit log")
}

// LogCRUD ghi thao tác CRUD do một request HTTP thực hiện
func LogCRUD(operation, resourceType, resourceID string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	if rid := RequestID(c); rid != "" {
		details["request_id"] = rid
	}

	GetAuditLogger().WithFields(logrus.Fields{
		"action":        "crud_" + operation,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"ip":            c.IP(),
		"user_agent":    c.Get(fiber.HeaderUserAgent),
		"details":       details,
		"timestamp":     time.Now().UTC(),
	}).Info("Audit log")
}
