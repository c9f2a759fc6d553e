package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"mini_crm/internal/database"
	"mini_crm/internal/global"
	"mini_crm/internal/logger"
)

// initLogger khởi tạo logger, đọc LOG_* từ môi trường (đã gồm file env)
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// resolvePath tìm đường dẫn tương đối từ thư mục chứa config/env
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	currentDir, err := os.Getwd()
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return filepath.Join(currentDir, path)
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return path
		}
		currentDir = parentDir
	}
}

// listen chạy server, trả về khi server dừng
func listen(app *fiber.App) error {
	cfg := global.ServerConfig
	address := ":" + cfg.Address
	log := logger.GetAppLogger()

	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		certPath := resolvePath(cfg.TLSCertFile)
		keyPath := resolvePath(cfg.TLSKeyFile)

		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		ln, err := net.Listen("tcp", address)
		if err != nil {
			return fmt.Errorf("create listener: %w", err)
		}
		tlsListener := tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})

		log.WithFields(map[string]interface{}{
			"address": address,
			"cert":    certPath,
		}).Info("Starting server with HTTPS/TLS")
		return app.Listener(tlsListener)
	}

	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")
	return app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// shutdown dừng nhận request mới, chờ request đang chạy rồi đóng MongoDB
func shutdown(app *fiber.App, handle *database.Handle) {
	log := logger.GetAppLogger()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error shutting down Fiber server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handle.Close(ctx); err != nil {
		log.WithError(err).Error("Error closing MongoDB connection")
	}

	log.Info("Server stopped")
	logger.Close()
}

// Hàm main
func main() {
	// Cấu hình trước để LOG_* trong file env được áp dụng
	initConfig()
	initLogger()

	handle := InitGlobal()
	InitRegistry(handle)

	app := InitFiberApp(handle)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(app)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.GetAppLogger().WithField("signal", sig.String()).Info("Shutting down server")
	case err := <-errCh:
		if err != nil {
			logger.GetAppLogger().WithError(err).Error("Server stopped with error")
		}
	}
	shutdown(app, handle)
}
