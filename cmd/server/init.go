package main

import (
	"context"
	"time"

	"mini_crm/config"
	basemodels "mini_crm/internal/api/base/models"
	"mini_crm/internal/database"
	"mini_crm/internal/global"
	"mini_crm/internal/logger"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() *database.Handle {
	initValidator()              // Khởi tạo validator
	return initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo cấu hình server, chạy trước logger để file env có hiệu lực với LOG_*
func initConfig() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}
	global.ServerConfig = cfg
	basemodels.SetMaxLimit(int64(cfg.CRM_MaxPageLimit))
}

// Hàm khởi tạo validator (đăng ký notblank, iso8601 và tên field theo tag json)
func initValidator() {
	global.InitValidator()
	logger.GetAppLogger().Info("Initialized validator")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() *database.Handle {
	log := logger.GetAppLogger()
	handle := database.NewHandle(global.ServerConfig)

	timeout := time.Duration(global.ServerConfig.MongoDB_ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := handle.Acquire(ctx); err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	log.WithField("database", global.ServerConfig.MongoDB_DBName).Info("Connected to MongoDB")
	return handle
}
