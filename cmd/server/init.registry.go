package main

import (
	"context"
	"fmt"
	"time"

	crmmodels "mini_crm/internal/api/crm/models"
	"mini_crm/internal/database"
	"mini_crm/internal/global"
	"mini_crm/internal/logger"
)

// collectionModels ánh xạ tên collection với model mang tag index
func collectionModels() map[string]interface{} {
	return map[string]interface{}{
		global.MongoDB_ColNames.CrmCustomers:  crmmodels.CrmCustomer{},
		global.MongoDB_ColNames.CrmActivities: crmmodels.CrmActivity{},
	}
}

func InitRegistry(handle *database.Handle) {
	log := logger.GetAppLogger()

	if err := InitCollections(handle); err != nil {
		log.Fatalf("Failed to initialize collections: %v", err)
	}
	log.Info("Initialized collection registry")
}

// InitCollections đăng ký các collection CRM và tạo index (unique email,
// customer + createdAt cho activities). Lỗi tạo index chỉ ghi log.
func InitCollections(handle *database.Handle) error {
	log := logger.GetAppLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := handle.Database(ctx)
	if err != nil {
		return fmt.Errorf("mở database: %w", err)
	}

	for name, model := range collectionModels() {
		coll := db.Collection(name)
		registered, err := global.RegistryCollections.Register(name, coll)
		if err != nil {
			log.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}
		if !registered {
			log.Warnf("Collection %s already registered", name)
			continue
		}

		if err := database.CreateIndexes(ctx, coll, model); err != nil {
			log.WithError(err).WithField("collection", name).Error("Failed to create indexes")
			continue
		}
		log.Infof("Collection %s registered successfully", name)
	}
	return nil
}
