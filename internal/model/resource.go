package model

import "fmt"

// Resource is one Kubernetes manifest document.
// Body holds JSON-compatible values only (string, int64, float64, bool, nil,
// map[string]interface{} and []interface{}) and must not be mutated.
type Resource struct {
	APIVersion string                 `json:"apiVersion"`
	Kind       string                 `json:"kind"`
	Namespace  string                 `json:"namespace"`
	Name       string                 `json:"name"`
	Body       map[string]interface{} `json:"-"`
	Raw        string                 `json:"-"`
}

// Key returns the identity key used to match a resource across snapshots.
func (r *Resource) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.APIVersion, r.Kind, r.Namespace, r.Name)
}

// PairStatus classifies a ResourcePair.
type PairStatus string

const (
	PairAdded     PairStatus = "added"
	PairRemoved   PairStatus = "removed"
	PairChanged   PairStatus = "changed"
	PairUnchanged PairStatus = "unchanged"
)

// ResourcePair associates the old and new version of one resource.
// Old is nil for added resources, New is nil for removed ones.
type ResourcePair struct {
	Old    *Resource
	New    *Resource
	Status PairStatus
}

// Current returns the most recent side of the pair: New when present, Old otherwise.
func (p ResourcePair) Current() *Resource {
	if p.New != nil {
		return p.New
	}
	return p.Old
}
