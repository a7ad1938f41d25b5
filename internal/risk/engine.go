package risk

import (
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Rule inspects one change record and reports risk annotations.
// Rules are independent: a rule never sees the output of another.
type Rule interface {
	Name() string
	Evaluate(record *model.ChangeRecord) []model.RiskAnnotation
}

// Engine runs an ordered set of rules against change records.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine that evaluates rules in the given order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// DefaultRules returns the built-in rules in registration order.
// A nil immutable table selects DefaultImmutableFields.
func DefaultRules(immutable map[string][]string) []Rule {
	if immutable == nil {
		immutable = DefaultImmutableFields
	}
	return []Rule{
		NewImmutableFieldRule(immutable),
		ServiceTypeRule{},
		StorageRule{},
		DeletionRule{},
		CRDRule{},
		RBACRule{},
	}
}

// Rules returns the registered rules.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Assess runs every rule on record and concatenates their annotations in
// rule order. Annotations are not deduplicated across rules.
func (e *Engine) Assess(record *model.ChangeRecord) []model.RiskAnnotation {
	annotations := []model.RiskAnnotation{}
	for _, rule := range e.rules {
		found := rule.Evaluate(record)
		if len(found) > 0 {
			klog.V(3).Infof("%s: rule %s reported %d finding(s)", record.ResourceKey, rule.Name(), len(found))
		}
		annotations = append(annotations, found...)
	}
	return annotations
}
