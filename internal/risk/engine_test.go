package risk

import (
	"reflect"
	"testing"

	"github.com/helm-preview/helm-preview/internal/model"
)

func changed(kind, name string, changes ...model.FieldChange) *model.ChangeRecord {
	r := &model.Resource{APIVersion: "v1", Kind: kind, Namespace: "default", Name: name}
	return model.NewChangeRecord(r, model.StatusChanged, changes)
}

func valueChange(path string, oldValue, newValue interface{}) model.FieldChange {
	return model.FieldChange{Path: path, OldValue: oldValue, NewValue: newValue, Kind: model.ValueChanged}
}

func TestEngine_ServiceClusterIPToLoadBalancer(t *testing.T) {
	record := changed("Service", "web", valueChange("spec.type", "ClusterIP", "LoadBalancer"))

	got := NewEngine(DefaultRules(nil)...).Assess(record)

	want := []model.RiskAnnotation{{
		Severity: model.SeverityDanger,
		Rule:     RuleServiceTypeChange,
		Message:  "Service type changed from ClusterIP to LoadBalancer",
		Path:     "spec.type",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assess() = %v, want %v", got, want)
	}
}

func TestEngine_PVCStorageIncrease(t *testing.T) {
	record := changed("PersistentVolumeClaim", "data", valueChange("spec.resources.requests.storage", "10Gi", "20Gi"))

	got := NewEngine(DefaultRules(nil)...).Assess(record)

	if len(got) != 1 {
		t.Fatalf("Assess() returned %d annotations, want 1: %v", len(got), got)
	}
	if got[0].Rule != RulePVCStorageChange || got[0].Severity != model.SeverityWarning {
		t.Errorf("Assess() = %v, want a %s warning", got[0], RulePVCStorageChange)
	}
	if got[0].Message != "PVC storage request changed from 10Gi to 20Gi" {
		t.Errorf("Message = %q", got[0].Message)
	}
}

func TestEngine_RemovedResource(t *testing.T) {
	r := &model.Resource{APIVersion: "apps/v1", Kind: "Deployment", Namespace: "default", Name: "web"}
	record := model.NewChangeRecord(r, model.StatusRemoved, nil)

	got := NewEngine(DefaultRules(nil)...).Assess(record)

	want := []model.RiskAnnotation{{
		Severity: model.SeverityWarning,
		Rule:     RuleResourceDeleted,
		Message:  "Deployment/web will be removed",
		Path:     "",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assess() = %v, want %v", got, want)
	}
}

func TestEngine_NoFindings(t *testing.T) {
	record := changed("ConfigMap", "cfg", valueChange("data.mode", "a", "b"))

	got := NewEngine(DefaultRules(nil)...).Assess(record)
	if got == nil || len(got) != 0 {
		t.Errorf("Assess() = %#v, want an empty non-nil slice", got)
	}
}

// Overlapping rules all report, in registration order.
func TestEngine_NoDeduplication(t *testing.T) {
	record := changed("PersistentVolumeClaim", "data", valueChange("spec.storageClassName", "standard", "fast"))

	got := NewEngine(DefaultRules(nil)...).Assess(record)

	var rules []string
	for _, a := range got {
		rules = append(rules, a.Rule)
	}
	want := []string{RuleImmutableField, RulePVCStorageClassChange}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("rules = %v, want %v", rules, want)
	}
}

// The annotation set does not depend on rule order, only its sequence does.
func TestEngine_RuleIndependence(t *testing.T) {
	records := []*model.ChangeRecord{
		changed("PersistentVolumeClaim", "data",
			valueChange("spec.storageClassName", "standard", "fast"),
			valueChange("spec.resources.requests.storage", "1Gi", "2Gi"),
		),
		changed("Service", "web", valueChange("spec.type", "ClusterIP", "NodePort"), valueChange("spec.clusterIP", "10.0.0.1", "10.0.0.2")),
		changed("ClusterRole", "admin", model.FieldChange{Path: "rules[0].verbs[1]", NewValue: "delete", Kind: model.ItemAdded}),
	}

	rules := DefaultRules(nil)
	reversed := make([]Rule, len(rules))
	for i, r := range rules {
		reversed[len(rules)-1-i] = r
	}

	forward := NewEngine(rules...)
	backward := NewEngine(reversed...)

	for _, record := range records {
		a := countAnnotations(forward.Assess(record))
		b := countAnnotations(backward.Assess(record))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: forward %v, backward %v", record.ResourceKey, a, b)
		}
	}
}

func countAnnotations(annotations []model.RiskAnnotation) map[model.RiskAnnotation]int {
	counts := make(map[model.RiskAnnotation]int)
	for _, a := range annotations {
		counts[a]++
	}
	return counts
}

type pathRule struct {
	path string
}

func (r pathRule) Name() string { return "custom_path" }

func (r pathRule) Evaluate(record *model.ChangeRecord) []model.RiskAnnotation {
	for _, c := range record.Changes {
		if c.Path == r.path {
			return []model.RiskAnnotation{{Severity: model.SeverityWarning, Rule: r.Name(), Path: c.Path}}
		}
	}
	return nil
}

func TestEngine_CustomRule(t *testing.T) {
	engine := NewEngine(append(DefaultRules(nil), pathRule{path: "data.mode"})...)

	got := engine.Assess(changed("ConfigMap", "cfg", valueChange("data.mode", "a", "b")))
	if len(got) != 1 || got[0].Rule != "custom_path" {
		t.Errorf("Assess() = %v, want one custom_path annotation", got)
	}
	if len(engine.Rules()) != 7 {
		t.Errorf("Rules() has %d rules, want 7", len(engine.Rules()))
	}
}
