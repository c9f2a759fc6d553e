package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"mini_crm/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Cú pháp tag `index` trên model, nhiều cấu hình cách nhau bởi ';':
//
//	index:"single"                       index tăng dần tên <field>_single
//	index:"single,order:-1"              index giảm dần
//	index:"unique"                       unique index tên <field>_unique (thêm ",sparse" nếu cần)
//	index:"text"                         text index
//	index:"compound:<group>,order:-1"    gom các field cùng group thành compound index, theo thứ tự khai báo
//
// Tên group chứa "_unique" tạo compound unique index.

// parseIndexTag tách tag thành danh sách cấu hình key:value
func parseIndexTag(tag string) []map[string]string {
	var result []map[string]string
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := map[string]string{}
		for _, sub := range strings.Split(part, ",") {
			kv := strings.SplitN(strings.TrimSpace(sub), ":", 2)
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

func parseOrder(entry map[string]string) int {
	if entry["order"] == "-1" {
		return -1
	}
	return 1
}

// IndexModelsFor đọc tag `index` của model và trả về các index cần có, sắp xếp theo tên
func IndexModelsFor(model interface{}) ([]mongo.IndexModel, error) {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model phải là struct, nhận %s", modelType.Kind())
	}

	var models []mongo.IndexModel
	compoundKeys := map[string]bson.D{}
	compoundSparse := map[string]bool{}
	var compoundOrder []string

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		bsonField := strings.SplitN(field.Tag.Get("bson"), ",", 2)[0]
		if bsonField == "" || bsonField == "-" {
			continue
		}

		for _, entry := range parseIndexTag(tag) {
			if _, ok := entry["text"]; ok {
				name := bsonField + "_text"
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: "text"}},
					Options: options.Index().SetName(name),
				})
			}
			if _, ok := entry["single"]; ok {
				name := bsonField + "_single"
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: parseOrder(entry)}},
					Options: options.Index().SetName(name),
				})
			}
			if _, ok := entry["unique"]; ok {
				opts := options.Index().SetName(bsonField + "_unique").SetUnique(true)
				if _, sparse := entry["sparse"]; sparse {
					opts.SetSparse(true)
				}
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: 1}},
					Options: opts,
				})
			}
			if ttlValue, ok := entry["ttl"]; ok {
				ttl, err := strconv.Atoi(ttlValue)
				if err != nil {
					return nil, fmt.Errorf("TTL không hợp lệ trên %s: %w", bsonField, err)
				}
				models = append(models, mongo.IndexModel{
					Keys:    bson.D{{Key: bsonField, Value: 1}},
					Options: options.Index().SetName(bsonField + "_ttl").SetExpireAfterSeconds(int32(ttl)),
				})
			}
			if group, ok := entry["compound"]; ok && group != "" {
				if _, seen := compoundKeys[group]; !seen {
					compoundOrder = append(compoundOrder, group)
				}
				compoundKeys[group] = append(compoundKeys[group], bson.E{Key: bsonField, Value: parseOrder(entry)})
				if _, sparse := entry["sparse"]; sparse {
					compoundSparse[group] = true
				}
			}
		}
	}

	for _, group := range compoundOrder {
		opts := options.Index().SetName(group)
		if strings.Contains(group, "_unique") {
			opts.SetUnique(true)
		}
		if compoundSparse[group] {
			opts.SetSparse(true)
		}
		models = append(models, mongo.IndexModel{Keys: compoundKeys[group], Options: opts})
	}

	sort.SliceStable(models, func(i, j int) bool {
		return *models[i].Options.Name < *models[j].Options.Name
	})
	return models, nil
}

// sameIndex so sánh index đang có trên server với định nghĩa mới (keys + unique)
func sameIndex(existing bson.M, want mongo.IndexModel) bool {
	existingKeys, ok := existing["key"].(bson.M)
	if !ok {
		return false
	}
	wantKeys := want.Keys.(bson.D)
	if len(existingKeys) != len(wantKeys) {
		return false
	}
	for _, k := range wantKeys {
		got, ok := existingKeys[k.Key]
		if !ok {
			return false
		}
		if order, isInt := k.Value.(int); isInt {
			switch v := got.(type) {
			case int32:
				if int(v) != order {
					return false
				}
			case int64:
				if int(v) != order {
					return false
				}
			case float64:
				if int(v) != order {
					return false
				}
			default:
				return false
			}
		} else if got != k.Value {
			return false
		}
	}

	existingUnique, _ := existing["unique"].(bool)
	wantUnique := want.Options.Unique != nil && *want.Options.Unique
	return existingUnique == wantUnique
}

// CreateIndexes đảm bảo collection có đủ index khai báo trên model.
// Index trùng tên nhưng khác cấu hình sẽ bị xóa và tạo lại.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	log := logger.WithModuleAndCollection("database", collection.Name())

	wanted, err := IndexModelsFor(model)
	if err != nil {
		return err
	}

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("không thể lấy danh sách index: %w", err)
	}
	defer cursor.Close(ctx)

	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			return fmt.Errorf("không thể giải mã thông tin index: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}

	for _, idx := range wanted {
		name := *idx.Options.Name
		if current, ok := existing[name]; ok {
			if sameIndex(current, idx) {
				continue
			}
			if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
				return fmt.Errorf("không thể xóa index %s: %w", name, err)
			}
			log.Infof("Đã xóa index cũ: %s", name)
		}
		if _, err := collection.Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("không thể tạo index %s: %w", name, err)
		}
		log.Infof("Đã tạo index: %s", name)
	}
	return nil
}
