package global

import (
	"mini_crm/config"
	"mini_crm/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// CrmCollectionNames chứa tên các collection CRM trong MongoDB
type CrmCollectionNames struct {
	CrmCustomers  string // Khách hàng
	CrmActivities string // Hoạt động (ghi chú, cuộc gọi, email, cuộc họp, task, đổi trạng thái)
}

// Các biến toàn cục
var Validate *validator.Validate          // Validator dùng chung, khởi tạo bởi InitValidator
var ServerConfig *config.Configuration    // Cấu hình của server
var MongoDB_ColNames = CrmCollectionNames{ // Tên các collection
	CrmCustomers:  "crm_customers",
	CrmActivities: "crm_activities",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
