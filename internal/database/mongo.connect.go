package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mini_crm/config"
	"mini_crm/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handle giữ kết nối MongoDB dùng chung cho cả tiến trình.
// Client được tạo ở lần Acquire đầu tiên thành công và tái sử dụng cho mọi request
// cho tới khi Close.
type Handle struct {
	cfg *config.Configuration

	mu     sync.Mutex
	client *mongo.Client
	closed bool
}

// NewHandle tạo handle chưa kết nối
func NewHandle(cfg *config.Configuration) *Handle {
	return &Handle{cfg: cfg}
}

// Acquire trả về client, kết nối nếu chưa có. Lần kết nối lỗi không được cache,
// lần gọi sau sẽ thử lại.
func (h *Handle) Acquire(ctx context.Context) (*mongo.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("mongo handle đã đóng")
	}
	if h.client != nil {
		return h.client, nil
	}

	client, err := connect(ctx, h.cfg)
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Database trả về database CRM đã cấu hình
func (h *Handle) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := h.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(h.cfg.MongoDB_DBName), nil
}

// Ping kiểm tra kết nối hiện tại, không tự kết nối
func (h *Handle) Ping(ctx context.Context) error {
	h.mu.Lock()
	client := h.client
	h.mu.Unlock()

	if client == nil {
		return fmt.Errorf("mongo chưa được kết nối")
	}
	return client.Ping(ctx, nil)
}

// Close ngắt kết nối. Sau Close, Acquire luôn trả lỗi.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.client == nil {
		return nil
	}
	client := h.client
	h.client = nil

	if err := client.Disconnect(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("Failed to disconnect MongoDB client")
		return err
	}
	logger.GetAppLogger().Info("Successfully disconnected from MongoDB")
	return nil
}

func connect(ctx context.Context, c *config.Configuration) (*mongo.Client, error) {
	if c == nil || c.MongoDB_ConnectionURI == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}

	connectTimeout := time.Duration(c.MongoDB_ConnectTimeout) * time.Second
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	clientOptions := options.Client().ApplyURI(c.MongoDB_ConnectionURI).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(10 * time.Second)
	if c.MongoDB_MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(uint64(c.MongoDB_MaxPoolSize))
	}
	if c.MongoDB_MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(uint64(c.MongoDB_MinPoolSize))
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.GetAppLogger().WithField("database", c.MongoDB_DBName).Info("Successfully connected to MongoDB")
	return client, nil
}
