package diff

import (
	"encoding/json"
	"strconv"
	"strings"
)

var boolTokens = map[string]bool{
	"true":  true,
	"yes":   true,
	"false": false,
	"no":    false,
}

// Equal reports whether two normalized values carry the same meaning.
// On top of literal equality it accepts a numeric string against a number
// ("80" and 80), a boolean token against a boolean ("yes" and true), and
// treats a missing map key as null. Lists compare position by position.
func Equal(a, b interface{}) bool {
	if literalEqual(a, b) {
		return true
	}

	if s, ok := a.(string); ok && isNumber(b) {
		return stringEqualsNumber(s, b)
	}
	if s, ok := b.(string); ok && isNumber(a) {
		return stringEqualsNumber(s, a)
	}

	if s, ok := a.(string); ok {
		if v, ok := b.(bool); ok {
			return stringEqualsBool(s, v)
		}
	}
	if s, ok := b.(string); ok {
		if v, ok := a.(bool); ok {
			return stringEqualsBool(s, v)
		}
	}

	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok {
			return false
		}
		for key, x := range av {
			if !Equal(x, bv[key]) {
				return false
			}
		}
		for key, y := range bv {
			if _, seen := av[key]; !seen && !Equal(nil, y) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// literalEqual compares scalars. Numbers compare by value across Go types.
func literalEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if isNumber(a) || isNumber(b) {
		return isNumber(a) && isNumber(b) && numbersEqual(a, b)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	return false
}

func stringEqualsNumber(s string, n interface{}) bool {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return numbersEqual(i, n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return numbersEqual(f, n)
	}
	return false
}

func stringEqualsBool(s string, v bool) bool {
	parsed, ok := boolTokens[strings.ToLower(s)]
	return ok && parsed == v
}

func numbersEqual(a, b interface{}) bool {
	if x, ok := toInt64(a); ok {
		if y, ok := toInt64(b); ok {
			return x == y
		}
	}
	x, _ := toFloat(a)
	y, _ := toFloat(b)
	return x == y
}

func isNumber(v interface{}) bool {
	_, ok := toFloat(v)
	return ok
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
