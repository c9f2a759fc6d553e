package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy dịch vụ CRM
type Configuration struct {
	Address                string `env:"ADDRESS" envDefault:"8080"`                  // Cổng server (không có dấu ':')
	MongoDB_ConnectionURI  string `env:"MONGODB_CONNECTION_URI,required"`            // URL kết nối cơ sở dữ liệu
	MongoDB_DBName         string `env:"MONGODB_DBNAME,required"`                    // Tên cơ sở dữ liệu CRM
	MongoDB_ConnectTimeout int    `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10"`    // Timeout kết nối (giây)
	MongoDB_MaxPoolSize    int    `env:"MONGODB_MAX_POOL_SIZE" envDefault:"50"`      // Số kết nối tối đa trong pool
	MongoDB_MinPoolSize    int    `env:"MONGODB_MIN_POOL_SIZE" envDefault:"5"`       // Số kết nối tối thiểu trong pool
	CORS_Origins           string `env:"CORS_ORIGINS" envDefault:"*"`                // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials  bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`  // Cho phép gửi credentials
	RateLimit_Max          int    `env:"RATE_LIMIT_MAX" envDefault:"100"`            // Số request tối đa trong window (0 = tắt)
	RateLimit_Window       int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`          // Thời gian window (giây)
	RateLimit_Enabled      bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`       // Bật/tắt rate limiting
	EnableTLS              bool   `env:"ENABLE_TLS" envDefault:"false"`              // Bật HTTPS
	TLSCertFile            string `env:"TLS_CERT_FILE"`                              // File certificate (.crt hoặc .pem)
	TLSKeyFile             string `env:"TLS_KEY_FILE"`                               // File private key (.key)
	CRM_StrictSideEffects  bool   `env:"CRM_STRICT_SIDE_EFFECTS" envDefault:"false"` // Lỗi hiệu ứng phụ trả về 500 thay vì chỉ ghi log
	CRM_RecentActivities   int    `env:"CRM_RECENT_ACTIVITY_LIMIT" envDefault:"5"`   // Số hoạt động gần nhất trong chi tiết khách hàng
	CRM_MaxPageLimit       int    `env:"CRM_MAX_PAGE_LIMIT" envDefault:"100"`        // Trần của tham số limit khi phân trang (0 = không giới hạn)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Đi ngược lên tới khi gặp thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig đọc cấu hình. File env là tùy chọn: khi chạy trong container
// các biến đã có sẵn trong môi trường.
func NewConfig(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		if envPath := getEnvPath(); envPath != "" {
			files = append(files, envPath)
		}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("không thể load file env tại %s: %w", f, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("lỗi khi parse config: %w", err)
	}
	if cfg.CRM_RecentActivities <= 0 {
		cfg.CRM_RecentActivities = 5
	}
	if cfg.CRM_MaxPageLimit < 0 {
		cfg.CRM_MaxPageLimit = 100
	}

	return &cfg, nil
}
