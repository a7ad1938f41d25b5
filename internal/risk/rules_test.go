package risk

import (
	"testing"

	"github.com/helm-preview/helm-preview/internal/model"
)

func TestImmutableFieldRule(t *testing.T) {
	tests := []struct {
		name     string
		table    map[string][]string
		kind     string
		path     string
		expected int
	}{
		{"deployment selector", nil, "Deployment", "spec.selector.matchLabels.app", 1},
		{"deployment replicas", nil, "Deployment", "spec.replicas", 0},
		{"service clusterIP", nil, "Service", "spec.clusterIP", 1},
		{"job selector", nil, "Job", "spec.selector.matchLabels.job", 1},
		{"statefulset claim templates", nil, "StatefulSet", "spec.volumeClaimTemplates[0].spec.resources", 1},
		{"kind is case insensitive", nil, "DEPLOYMENT", "spec.selector.matchLabels.app", 1},
		{"unknown kind", nil, "ConfigMap", "spec.selector", 0},
		{"custom table", map[string][]string{"ConfigMap": {"immutable"}}, "ConfigMap", "immutable", 1},
		{"custom table replaces defaults", map[string][]string{"ConfigMap": {"immutable"}}, "Service", "spec.clusterIP", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := tt.table
			if table == nil {
				table = DefaultImmutableFields
			}
			got := NewImmutableFieldRule(table).Evaluate(changed(tt.kind, "x", valueChange(tt.path, "a", "b")))
			if len(got) != tt.expected {
				t.Fatalf("Evaluate() returned %d annotations, want %d: %v", len(got), tt.expected, got)
			}
			for _, a := range got {
				if a.Severity != model.SeverityDanger || a.Path != tt.path {
					t.Errorf("annotation = %v, want danger at %s", a, tt.path)
				}
			}
		})
	}
}

func TestServiceTypeRule(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		oldValue interface{}
		newValue interface{}
		expected model.Severity
		count    int
	}{
		{"ClusterIP to NodePort", "Service", "ClusterIP", "NodePort", model.SeverityDanger, 1},
		{"ClusterIP to LoadBalancer", "Service", "ClusterIP", "LoadBalancer", model.SeverityDanger, 1},
		{"NodePort to ClusterIP", "Service", "NodePort", "ClusterIP", model.SeverityWarning, 1},
		{"type added", "Service", nil, "NodePort", model.SeverityWarning, 1},
		{"not a service", "Deployment", "ClusterIP", "NodePort", model.SeveritySafe, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ServiceTypeRule{}.Evaluate(changed(tt.kind, "web", valueChange("spec.type", tt.oldValue, tt.newValue)))
			if len(got) != tt.count {
				t.Fatalf("Evaluate() returned %d annotations, want %d", len(got), tt.count)
			}
			if tt.count > 0 && got[0].Severity != tt.expected {
				t.Errorf("Severity = %v, want %v", got[0].Severity, tt.expected)
			}
		})
	}
}

func TestStorageRule(t *testing.T) {
	record := changed("PersistentVolumeClaim", "data",
		valueChange("spec.resources.requests.storage", "1Gi", "5Gi"),
		valueChange("spec.storageClassName", "standard", "premium"),
		valueChange("spec.accessModes[0]", "ReadWriteOnce", "ReadWriteMany"),
	)

	got := StorageRule{}.Evaluate(record)
	if len(got) != 2 {
		t.Fatalf("Evaluate() returned %d annotations, want 2: %v", len(got), got)
	}
	if got[0].Rule != RulePVCStorageChange || got[0].Severity != model.SeverityWarning {
		t.Errorf("got[0] = %v, want storage warning", got[0])
	}
	if got[1].Rule != RulePVCStorageClassChange || got[1].Severity != model.SeverityDanger {
		t.Errorf("got[1] = %v, want storage class danger", got[1])
	}

	if got := (StorageRule{}).Evaluate(changed("ConfigMap", "x", valueChange("spec.storageClassName", "a", "b"))); len(got) != 0 {
		t.Errorf("Evaluate() on ConfigMap = %v, want none", got)
	}
}

func TestDeletionRule(t *testing.T) {
	if got := (DeletionRule{}).Evaluate(changed("Service", "web")); len(got) != 0 {
		t.Errorf("Evaluate() on changed record = %v, want none", got)
	}

	r := &model.Resource{APIVersion: "v1", Kind: "Service", Name: "web"}
	added := model.NewChangeRecord(r, model.StatusAdded, nil)
	if got := (DeletionRule{}).Evaluate(added); len(got) != 0 {
		t.Errorf("Evaluate() on added record = %v, want none", got)
	}
}

func TestCRDRule(t *testing.T) {
	record := changed("CustomResourceDefinition", "widgets.example.com",
		valueChange("spec.versions[0].served", true, false),
		valueChange("spec.scope", "Namespaced", "Cluster"),
		valueChange("spec.group", "a", "b"),
	)

	got := CRDRule{}.Evaluate(record)
	if len(got) != 2 {
		t.Fatalf("Evaluate() returned %d annotations, want 2: %v", len(got), got)
	}
	if got[0].Message != "CRD spec change at 'spec.versions[0].served' on widgets.example.com" {
		t.Errorf("Message = %q", got[0].Message)
	}
}

func TestRBACRule(t *testing.T) {
	for _, kind := range []string{"Role", "ClusterRole"} {
		record := changed(kind, "reader", valueChange("rules[0].verbs[0]", "get", "*"), valueChange("metadata.labels.team", "a", "b"))
		got := RBACRule{}.Evaluate(record)
		if len(got) != 1 || got[0].Severity != model.SeverityWarning || got[0].Path != "rules[0].verbs[0]" {
			t.Errorf("%s: Evaluate() = %v, want one warning on rules[0].verbs[0]", kind, got)
		}
	}

	if got := (RBACRule{}).Evaluate(changed("RoleBinding", "x", valueChange("rules", "a", "b"))); len(got) != 0 {
		t.Errorf("Evaluate() on RoleBinding = %v, want none", got)
	}
}
