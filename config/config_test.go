package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_CRMLimits(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantRecent int
		wantMax    int
	}{
		{"mặc định", map[string]string{}, 5, 100},
		{"giá trị tùy chỉnh", map[string]string{"CRM_RECENT_ACTIVITY_LIMIT": "8", "CRM_MAX_PAGE_LIMIT": "250"}, 8, 250},
		{"0 tắt trần limit", map[string]string{"CRM_MAX_PAGE_LIMIT": "0"}, 5, 0},
		{"giá trị âm về mặc định", map[string]string{"CRM_RECENT_ACTIVITY_LIMIT": "-1", "CRM_MAX_PAGE_LIMIT": "-5"}, 5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MONGODB_CONNECTION_URI", "mongodb://localhost:27017")
			t.Setenv("MONGODB_DBNAME", "mini_crm_test")
			// t.Setenv khôi phục giá trị cũ khi test kết thúc, Unsetenv để envDefault có hiệu lực
			for _, k := range []string{"CRM_RECENT_ACTIVITY_LIMIT", "CRM_MAX_PAGE_LIMIT"} {
				t.Setenv(k, "")
				require.NoError(t, os.Unsetenv(k))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecent, cfg.CRM_RecentActivities)
			assert.Equal(t, tt.wantMax, cfg.CRM_MaxPageLimit)
		})
	}
}
