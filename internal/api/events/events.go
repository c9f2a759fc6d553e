// Package events phát sự kiện khi dữ liệu thay đổi qua BaseServiceMongoImpl.
// Handler chỉ dùng cho việc quan sát (audit log). Các quy tắc nghiệp vụ giữa các
// entity được gọi trực tiếp và đồng bộ trong service, không đi qua đây.
package events

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các loại thao tác CRUD.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DataChangeEvent mô tả sự kiện thay đổi dữ liệu.
// Document là bản ghi trả về từ thao tác (nil khi xóa nhiều).
type DataChangeEvent struct {
	CollectionName string
	Operation      string
	DocumentID     primitive.ObjectID
	Count          int64
	Document       interface{}
}

// DataChangeHandler xử lý sự kiện thay đổi dữ liệu.
type DataChangeHandler func(ctx context.Context, e DataChangeEvent)

var (
	handlers   []DataChangeHandler
	handlersMu sync.RWMutex
)

// OnDataChanged đăng ký handler, thường gọi trong init() của package domain.
func OnDataChanged(h DataChangeHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, h)
}

// EmitDataChanged phát sự kiện tới mọi handler, mỗi handler một goroutine.
// Context được tách khỏi hủy bỏ của request vì handler có thể chạy sau khi response đã gửi.
func EmitDataChanged(ctx context.Context, e DataChangeEvent) {
	handlersMu.RLock()
	list := make([]DataChangeHandler, len(handlers))
	copy(list, handlers)
	handlersMu.RUnlock()

	if len(list) == 0 {
		return
	}
	if e.DocumentID.IsZero() {
		e.DocumentID = DocumentID(e.Document)
	}
	detached := context.WithoutCancel(ctx)

	for _, h := range list {
		go func(fn DataChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "[EVENTS] handler panic recovered: %v\n", r)
				}
			}()
			fn(detached, e)
		}(h)
	}
}

// DocumentID lấy field ID (primitive.ObjectID) của document bằng reflection
func DocumentID(doc interface{}) primitive.ObjectID {
	if doc == nil {
		return primitive.NilObjectID
	}
	val := reflect.ValueOf(doc)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return primitive.NilObjectID
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return primitive.NilObjectID
	}
	f := val.FieldByName("ID")
	if !f.IsValid() {
		return primitive.NilObjectID
	}
	if id, ok := f.Interface().(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}
