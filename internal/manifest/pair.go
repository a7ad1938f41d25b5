package manifest

import (
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/klog/v2"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Pair matches old and new resources by identity key.
// Pairs come out in first-seen order: keys of the old snapshot first, then
// keys that only exist in the new one. Within one snapshot the last
// occurrence of a duplicated key wins.
func Pair(oldResources, newResources []*model.Resource) []model.ResourcePair {
	oldByKey, oldKeys := index(oldResources)
	newByKey, newKeys := index(newResources)

	keys := make([]string, 0, len(oldKeys)+len(newKeys))
	keys = append(keys, oldKeys...)
	for _, key := range newKeys {
		if _, seen := oldByKey[key]; !seen {
			keys = append(keys, key)
		}
	}

	pairs := make([]model.ResourcePair, 0, len(keys))
	for _, key := range keys {
		oldRes := oldByKey[key]
		newRes := newByKey[key]

		var status model.PairStatus
		switch {
		case oldRes == nil:
			status = model.PairAdded
		case newRes == nil:
			status = model.PairRemoved
		case equality.Semantic.DeepEqual(oldRes.Body, newRes.Body):
			status = model.PairUnchanged
		default:
			status = model.PairChanged
		}

		pairs = append(pairs, model.ResourcePair{Old: oldRes, New: newRes, Status: status})
	}

	klog.V(2).Infof("Paired %d old and %d new resources into %d pairs", len(oldResources), len(newResources), len(pairs))
	return pairs
}

// index maps identity keys to resources and returns the keys in first-seen order.
func index(resources []*model.Resource) (map[string]*model.Resource, []string) {
	byKey := make(map[string]*model.Resource, len(resources))
	order := make([]string, 0, len(resources))
	for _, r := range resources {
		key := r.Key()
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = r
	}
	return byKey, order
}
