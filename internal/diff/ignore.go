package diff

import (
	"strings"
	"unicode/utf8"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// DefaultNoisePaths lists fields that change on every apply regardless of what
// the operator intended. Segments are separated by dots, a literal dot inside a
// key is escaped as `\.` and the last segment may be a glob.
var DefaultNoisePaths = []string{
	"metadata.creationTimestamp",
	"metadata.resourceVersion",
	"metadata.uid",
	"metadata.generation",
	"metadata.managedFields",
	`metadata.annotations.meta\.helm\.sh/*`,
	`metadata.annotations.kubectl\.kubernetes\.io/last-applied-configuration`,
	`metadata.labels.helm\.sh/chart`,
	"status",
}

// Filter strips noise paths from resource bodies.
type Filter struct {
	paths [][]string
}

// NewFilter creates a filter for the default noise paths plus extra.
// Extra paths are added to the defaults, they never replace them.
func NewFilter(extra []string) *Filter {
	seen := make(map[string]bool)
	f := &Filter{}
	for _, path := range append(append([]string{}, DefaultNoisePaths...), extra...) {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		f.paths = append(f.paths, SplitPath(path))
	}
	return f
}

// Strip returns a deep copy of body with every noise path removed.
func (f *Filter) Strip(body map[string]interface{}) map[string]interface{} {
	result := runtime.DeepCopyJSON(body)
	for _, parts := range f.paths {
		removePath(result, parts)
	}
	return result
}

// SplitPath splits a dot path into segments, honouring `\.` escapes.
//
//	metadata.annotations.meta\.helm\.sh/* -> [metadata annotations meta.helm.sh/*]
func SplitPath(path string) []string {
	var parts []string
	var segment strings.Builder

	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '\\' && i+1 < len(path) && path[i+1] == '.' {
			segment.WriteByte('.')
			i++
			continue
		}
		if c == '.' {
			parts = append(parts, segment.String())
			segment.Reset()
			continue
		}
		segment.WriteByte(c)
	}

	return append(parts, segment.String())
}

// removePath deletes the field addressed by parts. Intermediate segments must
// be maps; a glob in the last segment removes every matching sibling key.
func removePath(obj map[string]interface{}, parts []string) {
	if len(parts) == 0 {
		return
	}

	leaf := parts[len(parts)-1]
	if !isGlob(leaf) {
		unstructured.RemoveNestedField(obj, parts...)
		return
	}

	parent := obj
	if len(parts) > 1 {
		value, found, err := unstructured.NestedFieldNoCopy(obj, parts[:len(parts)-1]...)
		if !found || err != nil {
			return
		}
		m, ok := value.(map[string]interface{})
		if !ok {
			return
		}
		parent = m
	}

	for key := range parent {
		if matchGlob(key, leaf) {
			delete(parent, key)
		}
	}
}

func isGlob(segment string) bool {
	return strings.ContainsAny(segment, "*?[")
}

// matchGlob matches s against a shell-style pattern.
// Supports:
//   - * : any sequence of characters, including '/' and '.'
//   - ? : any single character
//   - [abc], [a-z], [!a-z] : character classes
func matchGlob(s, pattern string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Skip consecutive *s
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlob(s[i:], pattern) {
					return true
				}
			}
			return false
		case '?':
			if s == "" {
				return false
			}
			_, size := utf8.DecodeRuneInString(s)
			s, pattern = s[size:], pattern[1:]
		case '[':
			if s == "" {
				return false
			}
			r, size := utf8.DecodeRuneInString(s)
			matched, rest, ok := matchClass(r, pattern[1:])
			if !ok {
				// Unterminated class, '[' is literal
				if s[0] != '[' {
					return false
				}
				s, pattern = s[1:], pattern[1:]
				continue
			}
			if !matched {
				return false
			}
			s, pattern = s[size:], rest
		default:
			if s == "" || s[0] != pattern[0] {
				return false
			}
			s, pattern = s[1:], pattern[1:]
		}
	}

	return s == ""
}

// matchClass matches r against the class that follows a '['. It returns the
// remaining pattern after the closing ']' and ok=false if there is none.
func matchClass(r rune, class string) (matched bool, rest string, ok bool) {
	negate := strings.HasPrefix(class, "!")
	if negate {
		class = class[1:]
	}

	// A ']' right after the opening bracket is a literal member.
	end := strings.IndexByte(class, ']')
	if end == 0 {
		next := strings.IndexByte(class[1:], ']')
		if next < 0 {
			return false, "", false
		}
		end = next + 1
	}
	if end < 0 {
		return false, "", false
	}

	members := []rune(class[:end])
	for i := 0; i < len(members); i++ {
		if i+2 < len(members) && members[i+1] == '-' {
			if members[i] <= r && r <= members[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if members[i] == r {
			matched = true
		}
	}

	return matched != negate, class[end+1:], true
}
