package logger

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// filteredKey đánh dấu entry bị lọc, AsyncHook sẽ bỏ qua entry này
const filteredKey = "_filtered"

// FilterHook lọc log entries theo module, collection, HTTP method và level
type FilterHook struct {
	modules     map[string]bool
	collections map[string]bool
	methods     map[string]bool
	levels      map[string]bool

	mu sync.RWMutex
}

// NewFilterHook tạo filter hook từ cấu hình
func NewFilterHook(cfg *LogConfig) *FilterHook {
	h := &FilterHook{}
	h.UpdateFilters(cfg)
	return h
}

// UpdateFilters cập nhật filters từ config mới (có thể gọi runtime)
func (h *FilterHook) UpdateFilters(cfg *LogConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.modules = parseFilter(cfg.FilterModules)
	h.collections = parseFilter(cfg.FilterCollections)
	h.methods = parseFilter(cfg.FilterMethods)
	h.levels = parseFilter(cfg.FilterLogTypes)
}

// parseFilter trả về nil khi cho phép tất cả
func parseFilter(filterStr string) map[string]bool {
	filterStr = strings.TrimSpace(filterStr)
	if filterStr == "" || filterStr == "*" {
		return nil
	}

	result := make(map[string]bool)
	for _, v := range strings.Split(filterStr, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "*" {
			return nil
		}
		if v != "" {
			result[v] = true
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Levels trả về các log levels mà hook này xử lý
func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đánh dấu entry không khớp filter. Entry thiếu field tương ứng thì được giữ lại.
func (h *FilterHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.allows(entry) {
		entry.Data[filteredKey] = true
	}
	return nil
}

func (h *FilterHook) allows(entry *logrus.Entry) bool {
	if h.levels != nil && !h.levels[strings.ToLower(entry.Level.String())] {
		return false
	}
	if !matchField(h.modules, entry.Data["module"]) {
		return false
	}
	if !matchField(h.collections, entry.Data["collection"]) {
		return false
	}
	return matchField(h.methods, entry.Data["method"])
}

func matchField(allowed map[string]bool, value interface{}) bool {
	if allowed == nil {
		return true
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return true
	}
	return allowed[strings.ToLower(s)]
}
