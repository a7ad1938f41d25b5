package risk

import (
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Rule identifiers as they appear in reports.
const (
	RuleImmutableField        = "immutable_field"
	RuleServiceTypeChange     = "service_type_change"
	RulePVCStorageChange      = "pvc_storage_change"
	RulePVCStorageClassChange = "pvc_storage_class_change"
	RuleResourceDeleted       = "resource_deleted"
	RuleCRDSpecChange         = "crd_spec_change"
	RuleRBACChange            = "rbac_change"
)

// DefaultImmutableFields maps lowercase kinds to path prefixes the API server
// refuses to update in place.
var DefaultImmutableFields = map[string][]string{
	"deployment":            {"spec.selector.matchLabels"},
	"service":               {"spec.clusterIP"},
	"persistentvolumeclaim": {"spec.storageClassName"},
	"job":                   {"spec.selector"},
	"statefulset":           {"spec.volumeClaimTemplates"},
}

// ImmutableFieldRule flags changes under immutable path prefixes.
type ImmutableFieldRule struct {
	fields map[string][]string
}

// NewImmutableFieldRule creates the rule for a kind -> prefixes table.
// Kinds are matched case-insensitively.
func NewImmutableFieldRule(fields map[string][]string) *ImmutableFieldRule {
	normalized := make(map[string][]string, len(fields))
	for kind, prefixes := range fields {
		key := strings.ToLower(kind)
		normalized[key] = append(normalized[key], prefixes...)
	}
	for _, prefixes := range normalized {
		sort.Strings(prefixes)
	}
	return &ImmutableFieldRule{fields: normalized}
}

func (r *ImmutableFieldRule) Name() string { return RuleImmutableField }

func (r *ImmutableFieldRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	prefixes := r.fields[strings.ToLower(record.Kind)]
	if len(prefixes) == 0 {
		return nil
	}

	var annotations []model.RiskAnnotation
	for _, change := range record.Changes {
		for _, prefix := range prefixes {
			if strings.HasPrefix(change.Path, prefix) {
				annotations = append(annotations, model.RiskAnnotation{
					Severity: model.SeverityDanger,
					Rule:     RuleImmutableField,
					Message:  fmt.Sprintf("Immutable field '%s' changed on %s/%s", change.Path, record.Kind, record.Name),
					Path:     change.Path,
				})
			}
		}
	}
	return annotations
}

// ServiceTypeRule flags Service type changes. Exposing a ClusterIP service
// outside the cluster is dangerous, any other type change is a warning.
type ServiceTypeRule struct{}

func (ServiceTypeRule) Name() string { return RuleServiceTypeChange }

func (ServiceTypeRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	if record.Kind != "Service" {
		return nil
	}

	var annotations []model.RiskAnnotation
	for _, change := range record.Changes {
		if change.Path != "spec.type" {
			continue
		}

		severity := model.SeverityWarning
		if change.OldValue == string(corev1.ServiceTypeClusterIP) &&
			(change.NewValue == string(corev1.ServiceTypeNodePort) || change.NewValue == string(corev1.ServiceTypeLoadBalancer)) {
			severity = model.SeverityDanger
		}

		annotations = append(annotations, model.RiskAnnotation{
			Severity: severity,
			Rule:     RuleServiceTypeChange,
			Message:  fmt.Sprintf("Service type changed from %v to %v", displayValue(change.OldValue), displayValue(change.NewValue)),
			Path:     change.Path,
		})
	}
	return annotations
}

// StorageRule flags PersistentVolumeClaim storage request and class changes.
type StorageRule struct{}

func (StorageRule) Name() string { return RulePVCStorageChange }

func (StorageRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	if record.Kind != "PersistentVolumeClaim" {
		return nil
	}

	var annotations []model.RiskAnnotation
	for _, change := range record.Changes {
		if strings.Contains(change.Path, "requests") && strings.Contains(change.Path, string(corev1.ResourceStorage)) {
			annotations = append(annotations, model.RiskAnnotation{
				Severity: model.SeverityWarning,
				Rule:     RulePVCStorageChange,
				Message:  fmt.Sprintf("PVC storage request changed from %v to %v", displayValue(change.OldValue), displayValue(change.NewValue)),
				Path:     change.Path,
			})
		}
		if change.Path == "spec.storageClassName" {
			annotations = append(annotations, model.RiskAnnotation{
				Severity: model.SeverityDanger,
				Rule:     RulePVCStorageClassChange,
				Message:  fmt.Sprintf("PVC storageClassName changed from %v to %v", displayValue(change.OldValue), displayValue(change.NewValue)),
				Path:     change.Path,
			})
		}
	}
	return annotations
}

// DeletionRule flags every removed resource.
type DeletionRule struct{}

func (DeletionRule) Name() string { return RuleResourceDeleted }

func (DeletionRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	if record.Status != model.StatusRemoved {
		return nil
	}
	return []model.RiskAnnotation{{
		Severity: model.SeverityWarning,
		Rule:     RuleResourceDeleted,
		Message:  fmt.Sprintf("%s/%s will be removed", record.Kind, record.Name),
	}}
}

var crdDangerPrefixes = []string{"spec.scope", "spec.versions", "spec.validation", "spec.names"}

// CRDRule flags schema, scope, version and naming changes of a
// CustomResourceDefinition. Each change is reported at most once.
type CRDRule struct{}

func (CRDRule) Name() string { return RuleCRDSpecChange }

func (CRDRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	if record.Kind != "CustomResourceDefinition" {
		return nil
	}

	var annotations []model.RiskAnnotation
	for _, change := range record.Changes {
		for _, prefix := range crdDangerPrefixes {
			if strings.HasPrefix(change.Path, prefix) {
				annotations = append(annotations, model.RiskAnnotation{
					Severity: model.SeverityDanger,
					Rule:     RuleCRDSpecChange,
					Message:  fmt.Sprintf("CRD spec change at '%s' on %s", change.Path, record.Name),
					Path:     change.Path,
				})
				break
			}
		}
	}
	return annotations
}

// RBACRule flags rule changes of Roles and ClusterRoles.
type RBACRule struct{}

func (RBACRule) Name() string { return RuleRBACChange }

func (RBACRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	if record.Kind != "ClusterRole" && record.Kind != "Role" {
		return nil
	}

	var annotations []model.RiskAnnotation
	for _, change := range record.Changes {
		if strings.HasPrefix(change.Path, "rules") {
			annotations = append(annotations, model.RiskAnnotation{
				Severity: model.SeverityWarning,
				Rule:     RuleRBACChange,
				Message:  fmt.Sprintf("RBAC rules changed at '%s' on %s/%s", change.Path, record.Kind, record.Name),
				Path:     change.Path,
			})
		}
	}
	return annotations
}

// displayValue renders an absent side of a change as "<none>".
func displayValue(v interface{}) interface{} {
	if v == nil {
		return "<none>"
	}
	return v
}
