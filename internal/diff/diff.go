package diff

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Compute returns every elementary difference between two normalized values.
// Map keys are joined with '.', list indices are appended as [i]:
//
//	spec.template.spec.containers[0].image
//
// Lists are compared position by position. Semantically equal subtrees
// produce no changes, so the result may be empty for bodies that differ
// only in representation.
func Compute(oldObj, newObj interface{}) []model.FieldChange {
	return computeChanges(oldObj, newObj, "")
}

func computeChanges(oldObj, newObj interface{}, path string) []model.FieldChange {
	if Equal(oldObj, newObj) {
		return nil
	}

	// Handle maps
	if oldMap, ok := oldObj.(map[string]interface{}); ok {
		if newMap, ok := newObj.(map[string]interface{}); ok {
			var changes []model.FieldChange
			for _, key := range unionKeys(oldMap, newMap) {
				keyPath := joinKey(path, key)
				oldValue, inOld := oldMap[key]
				newValue, inNew := newMap[key]

				switch {
				case inOld && inNew:
					changes = append(changes, computeChanges(oldValue, newValue, keyPath)...)
				case inNew:
					// A key added with a null value is the same as no key
					if !Equal(nil, newValue) {
						changes = append(changes, model.FieldChange{Path: keyPath, NewValue: newValue, Kind: model.ItemAdded})
					}
				default:
					if !Equal(oldValue, nil) {
						changes = append(changes, model.FieldChange{Path: keyPath, OldValue: oldValue, Kind: model.ItemRemoved})
					}
				}
			}
			return changes
		}
	}

	// Handle arrays
	if oldList, ok := oldObj.([]interface{}); ok {
		if newList, ok := newObj.([]interface{}); ok {
			var changes []model.FieldChange
			for i := 0; i < len(oldList) || i < len(newList); i++ {
				indexPath := fmt.Sprintf("%s[%d]", path, i)
				switch {
				case i < len(oldList) && i < len(newList):
					changes = append(changes, computeChanges(oldList[i], newList[i], indexPath)...)
				case i < len(newList):
					changes = append(changes, model.FieldChange{Path: indexPath, NewValue: newList[i], Kind: model.ItemAdded})
				default:
					changes = append(changes, model.FieldChange{Path: indexPath, OldValue: oldList[i], Kind: model.ItemRemoved})
				}
			}
			return changes
		}
	}

	kind := model.ValueChanged
	if category(oldObj) != category(newObj) {
		kind = model.TypeChanged
	}
	return []model.FieldChange{{Path: path, OldValue: oldObj, NewValue: newObj, Kind: kind}}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func unionKeys(a, b map[string]interface{}) []string {
	keys := make([]string, 0, len(a)+len(b))
	for key := range a {
		keys = append(keys, key)
	}
	for key := range b {
		if _, ok := a[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// category groups values whose difference is a plain value change.
func category(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "map"
	case []interface{}:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// MaskSecretValues returns a copy of a Secret body whose data and stringData
// values are replaced by their SHA-256 hash. Changed keys still differ after
// masking, but plaintext never reaches a report.
func MaskSecretValues(body map[string]interface{}) map[string]interface{} {
	result := runtime.DeepCopyJSON(body)
	for _, field := range []string{"data", "stringData"} {
		values, ok := result[field].(map[string]interface{})
		if !ok {
			continue
		}
		for k, v := range values {
			values[k] = hashValue(v)
		}
	}
	return result
}

// hashValue computes SHA-256 hash of a value and returns it as a hex string.
func hashValue(value interface{}) string {
	var data []byte

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		// For other types, JSON encode them
		jsonData, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("<hash-error:%v>", err)
		}
		data = jsonData
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", hash)
}
