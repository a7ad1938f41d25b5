package filter

import (
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Exclude lists resources left out of the analysis.
type Exclude struct {
	// NamespacePatterns is a list of patterns for namespaces to exclude.
	// Supports wildcards: * matches any sequence, ? matches single character.
	// Examples: "kube-*", "*system*", "default"
	NamespacePatterns []string `json:"namespace_patterns,omitempty" yaml:"namespacePatterns,omitempty"`

	// NamePatterns is a list of patterns for resource names to exclude.
	// Examples: "*-test", "test-*"
	NamePatterns []string `json:"name_patterns,omitempty" yaml:"namePatterns,omitempty"`

	// KindPatterns is a list of patterns for resource kinds to exclude.
	// Examples: "Secret", "*Binding"
	KindPatterns []string `json:"kind_patterns,omitempty" yaml:"kindPatterns,omitempty"`
}

// IsEmpty reports whether e excludes nothing.
func (e *Exclude) IsEmpty() bool {
	return e == nil || len(e.NamespacePatterns)+len(e.NamePatterns)+len(e.KindPatterns) == 0
}

// Matches reports whether r is excluded.
func (e *Exclude) Matches(r *model.Resource) bool {
	if e == nil || r == nil {
		return false
	}
	return matchesAnyPattern(r.Namespace, e.NamespacePatterns) ||
		matchesAnyPattern(r.Name, e.NamePatterns) ||
		matchesAnyPattern(r.Kind, e.KindPatterns)
}

// Apply returns the resources that are not excluded, in their original order.
// The input slice is not modified.
func (e *Exclude) Apply(resources []*model.Resource) []*model.Resource {
	if e.IsEmpty() {
		return resources
	}
	kept := make([]*model.Resource, 0, len(resources))
	for _, r := range resources {
		if e.Matches(r) {
			klog.V(3).Infof("Excluding %s", r.Key())
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// Merge returns the union of e and other. Either may be nil.
func (e *Exclude) Merge(other *Exclude) *Exclude {
	if e.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return e
	}
	return &Exclude{
		NamespacePatterns: append(append([]string{}, e.NamespacePatterns...), other.NamespacePatterns...),
		NamePatterns:      append(append([]string{}, e.NamePatterns...), other.NamePatterns...),
		KindPatterns:      append(append([]string{}, e.KindPatterns...), other.KindPatterns...),
	}
}

func matchesAnyPattern(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(s, pattern) {
			return true
		}
	}
	return false
}

// matchPattern matches s against pattern, where * matches any sequence of
// characters (including empty) and ? matches exactly one character.
// Patterns without wildcards must match exactly.
func matchPattern(s, pattern string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchPattern(s[i:], pattern) {
					return true
				}
			}
			return false
		case '?':
			if s == "" {
				return false
			}
		default:
			if s == "" || s[0] != pattern[0] {
				return false
			}
		}
		s = s[1:]
		pattern = pattern[1:]
	}
	return s == ""
}
