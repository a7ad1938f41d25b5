package diff

import (
	"strings"
	"testing"

	"github.com/helm-preview/helm-preview/internal/manifest"
	"github.com/helm-preview/helm-preview/internal/model"
)

func singlePair(t *testing.T, oldYAML, newYAML string) model.ResourcePair {
	t.Helper()
	pairs := manifest.Pair(
		manifest.Parse(oldYAML, manifest.DefaultNamespace),
		manifest.Parse(newYAML, manifest.DefaultNamespace),
	)
	if len(pairs) != 1 {
		t.Fatalf("Pair() returned %d pairs, want 1", len(pairs))
	}
	return pairs[0]
}

const configMapV1 = `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  resourceVersion: "100"
  annotations:
    meta.helm.sh/release-name: web
data:
  mode: fast
`

func TestDiffer_NoiseOnlyChange(t *testing.T) {
	newYAML := strings.Replace(configMapV1, `"100"`, `"101"`, 1)
	pair := singlePair(t, configMapV1, newYAML)

	if pair.Status != model.PairChanged {
		t.Fatalf("pair status = %v, want %v", pair.Status, model.PairChanged)
	}

	if record := NewDiffer(Options{}).ComputeRecord(pair); record != nil {
		t.Errorf("ComputeRecord() = %+v, want nil", record)
	}
}

func TestDiffer_ShowAllReportsNoise(t *testing.T) {
	newYAML := strings.Replace(configMapV1, `"100"`, `"101"`, 1)
	pair := singlePair(t, configMapV1, newYAML)

	record := NewDiffer(Options{ShowAll: true, IgnorePaths: []string{"metadata.resourceVersion"}}).ComputeRecord(pair)
	if record == nil {
		t.Fatal("ComputeRecord() = nil, want a change record")
	}
	if len(record.Changes) != 1 || record.Changes[0].Path != "metadata.resourceVersion" {
		t.Errorf("Changes = %v, want metadata.resourceVersion", record.Changes)
	}
}

func TestDiffer_ChangedRecord(t *testing.T) {
	newYAML := strings.Replace(configMapV1, "fast", "slow", 1)
	record := NewDiffer(Options{}).ComputeRecord(singlePair(t, configMapV1, newYAML))

	if record == nil {
		t.Fatal("ComputeRecord() = nil, want a change record")
	}
	if record.Status != model.StatusChanged {
		t.Errorf("Status = %v, want %v", record.Status, model.StatusChanged)
	}
	if record.ResourceKey != "v1/ConfigMap/default/settings" {
		t.Errorf("ResourceKey = %v, want v1/ConfigMap/default/settings", record.ResourceKey)
	}
	want := model.FieldChange{Path: "data.mode", OldValue: "fast", NewValue: "slow", Kind: model.ValueChanged}
	if len(record.Changes) != 1 || record.Changes[0] != want {
		t.Errorf("Changes = %v, want [%v]", record.Changes, want)
	}
}

func TestDiffer_AddedAndRemoved(t *testing.T) {
	d := NewDiffer(Options{})

	added := d.ComputeRecord(singlePair(t, "", configMapV1))
	if added == nil || added.Status != model.StatusAdded || len(added.Changes) != 0 {
		t.Errorf("added record = %+v, want status added with no changes", added)
	}

	removed := d.ComputeRecord(singlePair(t, configMapV1, ""))
	if removed == nil || removed.Status != model.StatusRemoved || len(removed.Changes) != 0 {
		t.Errorf("removed record = %+v, want status removed with no changes", removed)
	}
}

func TestDiffer_Unchanged(t *testing.T) {
	pair := singlePair(t, configMapV1, configMapV1)
	if record := NewDiffer(Options{}).ComputeRecord(pair); record != nil {
		t.Errorf("ComputeRecord() = %+v, want nil", record)
	}
}

func TestDiffer_ExtraIgnorePath(t *testing.T) {
	newYAML := strings.Replace(configMapV1, "fast", "slow", 1)
	record := NewDiffer(Options{IgnorePaths: []string{"data.mode"}}).ComputeRecord(singlePair(t, configMapV1, newYAML))
	if record != nil {
		t.Errorf("ComputeRecord() = %+v, want nil", record)
	}
}

func TestDiffer_ReorderedEnvIsNotAChange(t *testing.T) {
	oldYAML := `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  template:
    spec:
      containers:
      - name: app
        env:
        - name: A
          value: "1"
        - name: B
          value: "2"
`
	newYAML := `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  template:
    spec:
      containers:
      - name: app
        env:
        - name: B
          value: 2
        - name: A
          value: "1"
`
	if record := NewDiffer(Options{}).ComputeRecord(singlePair(t, oldYAML, newYAML)); record != nil {
		t.Errorf("ComputeRecord() = %+v, want nil", record)
	}
}

func TestDiffer_SecretValuesAreMasked(t *testing.T) {
	oldYAML := `
apiVersion: v1
kind: Secret
metadata:
  name: creds
data:
  password: b2xk
`
	newYAML := strings.Replace(oldYAML, "b2xk", "bmV3", 1)

	record := NewDiffer(Options{}).ComputeRecord(singlePair(t, oldYAML, newYAML))
	if record == nil || len(record.Changes) != 1 {
		t.Fatalf("ComputeRecord() = %+v, want one change", record)
	}

	change := record.Changes[0]
	if change.Path != "data.password" {
		t.Errorf("Path = %v, want data.password", change.Path)
	}
	for _, v := range []interface{}{change.OldValue, change.NewValue} {
		s, _ := v.(string)
		if !strings.HasPrefix(s, "sha256:") {
			t.Errorf("secret value %v was not masked", v)
		}
	}
}
