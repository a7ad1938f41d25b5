package diff

import (
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Options configures a Differ.
type Options struct {
	// ShowAll disables noise filtering, including IgnorePaths.
	ShowAll bool

	// IgnorePaths are extra noise paths added to DefaultNoisePaths.
	IgnorePaths []string

	// ListSortKeys overrides DefaultListSortKeys when non-nil.
	ListSortKeys map[string]string
}

// Differ turns resource pairs into change records.
type Differ struct {
	showAll    bool
	filter     *Filter
	normalizer *Normalizer
}

// NewDiffer creates a Differ from options.
func NewDiffer(opts Options) *Differ {
	return &Differ{
		showAll:    opts.ShowAll,
		filter:     NewFilter(opts.IgnorePaths),
		normalizer: NewNormalizer(opts.ListSortKeys),
	}
}

// ComputeRecord computes the change record for one pair. It returns nil when
// the pair is unchanged or when nothing meaningful remains after filtering,
// normalization and semantic comparison.
func (d *Differ) ComputeRecord(pair model.ResourcePair) *model.ChangeRecord {
	switch pair.Status {
	case model.PairUnchanged:
		return nil
	case model.PairAdded:
		return model.NewChangeRecord(pair.New, model.StatusAdded, nil)
	case model.PairRemoved:
		return model.NewChangeRecord(pair.Old, model.StatusRemoved, nil)
	}

	oldBody, newBody := pair.Old.Body, pair.New.Body
	if !d.showAll {
		oldBody = d.filter.Strip(oldBody)
		newBody = d.filter.Strip(newBody)
	}

	oldBody = d.normalizer.Normalize(oldBody)
	newBody = d.normalizer.Normalize(newBody)

	if pair.Old.Kind == "Secret" {
		oldBody = MaskSecretValues(oldBody)
		newBody = MaskSecretValues(newBody)
	}

	if Equal(oldBody, newBody) {
		klog.V(3).Infof("%s: no meaningful change after normalization", pair.Old.Key())
		return nil
	}

	changes := Compute(oldBody, newBody)
	if len(changes) == 0 {
		return nil
	}

	return model.NewChangeRecord(pair.Old, model.StatusChanged, changes)
}
