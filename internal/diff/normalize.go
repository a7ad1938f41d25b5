package diff

import (
	"sort"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/klog/v2"
)

// DefaultListSortKeys maps list paths to the field their elements are sorted
// by. A `*` segment matches every element of a list.
var DefaultListSortKeys = map[string]string{
	"spec.template.spec.containers.*.env":          "name",
	"spec.template.spec.containers.*.ports":        "containerPort",
	"spec.template.spec.containers.*.volumeMounts": "mountPath",
	"spec.template.spec.volumes":                   "name",
	"spec.template.spec.initContainers.*.env":      "name",
	"spec.template.spec.initContainers.*.ports":    "containerPort",
	"spec.ports":                                   "port",
}

type listRule struct {
	parts []string
	field string
}

// Normalizer canonicalizes resource bodies before comparison.
//
// Maps need no reordering: every consumer (the diff engine, the renderers
// and encoding/json) walks map keys in sorted order. The normalizer sorts
// lists whose order carries no meaning, such as environment variables.
type Normalizer struct {
	rules []listRule
}

// NewNormalizer creates a normalizer for the given list table. A nil table
// selects DefaultListSortKeys.
func NewNormalizer(sortKeys map[string]string) *Normalizer {
	if sortKeys == nil {
		sortKeys = DefaultListSortKeys
	}

	patterns := make([]string, 0, len(sortKeys))
	for pattern := range sortKeys {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	n := &Normalizer{}
	for _, pattern := range patterns {
		n.rules = append(n.rules, listRule{parts: SplitPath(pattern), field: sortKeys[pattern]})
	}
	return n
}

// Normalize returns a deep copy of body with every known unordered list sorted.
func (n *Normalizer) Normalize(body map[string]interface{}) map[string]interface{} {
	result := runtime.DeepCopyJSON(body)
	for _, rule := range n.rules {
		sortListAt(result, rule.parts, rule.field)
	}
	return result
}

func sortListAt(obj interface{}, parts []string, field string) {
	if len(parts) == 0 {
		return
	}

	switch v := obj.(type) {
	case map[string]interface{}:
		child, ok := v[parts[0]]
		if !ok {
			return
		}
		if len(parts) == 1 {
			if list, ok := child.([]interface{}); ok {
				v[parts[0]] = sortList(list, field)
			}
			return
		}
		sortListAt(child, parts[1:], field)
	case []interface{}:
		if parts[0] != "*" {
			return
		}
		for _, item := range v {
			sortListAt(item, parts[1:], field)
		}
	}
}

// sortList stable-sorts list by each element's field. Elements that are not
// maps or lack the field sort as "". When the keys are neither all strings
// nor all numbers the list is returned as is.
func sortList(list []interface{}, field string) []interface{} {
	if len(list) < 2 {
		return list
	}

	keys := make([]interface{}, len(list))
	allStrings, allNumbers := true, true
	for i, item := range list {
		keys[i] = ""
		if m, ok := item.(map[string]interface{}); ok {
			if value, ok := m[field]; ok {
				keys[i] = value
			}
		}
		if _, ok := keys[i].(string); !ok {
			allStrings = false
		}
		if _, ok := toFloat(keys[i]); !ok {
			allNumbers = false
		}
	}

	var less func(a, b interface{}) bool
	switch {
	case allStrings:
		less = func(a, b interface{}) bool { return a.(string) < b.(string) }
	case allNumbers:
		less = func(a, b interface{}) bool {
			x, _ := toFloat(a)
			y, _ := toFloat(b)
			return x < y
		}
	default:
		klog.V(4).Infof("Leaving list unsorted: %q keys have mixed types", field)
		return list
	}

	order := make([]int, len(list))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return less(keys[order[i]], keys[order[j]])
	})

	sorted := make([]interface{}, len(list))
	for i, idx := range order {
		sorted[i] = list[idx]
	}
	return sorted
}
