package ownership

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/helm-preview/helm-preview/internal/model"
)

const (
	labelManagedBy      = "app.kubernetes.io/managed-by"
	labelInstance       = "app.kubernetes.io/instance"
	annotationRelease   = "meta.helm.sh/release-name"
	annotationArgoCD    = "argocd.argoproj.io/managed-by"
	labelArgoCDInstance = "argocd.argoproj.io/instance"
	fluxMarker          = "fluxcd.io"
)

// Detect attributes a resource to the system managing it.
// Helm markers win over Argo CD markers, which win over Flux markers.
func Detect(r *model.Resource) model.OwnershipInfo {
	return Detector{}.Detect(r)
}

// Detector attributes resources and warns about ownership conflicts.
type Detector struct {
	// Release is the Helm release being previewed. When set, resources owned
	// by another release produce a warning.
	Release string
}

// Detect attributes r and collects ownership warnings.
func (d Detector) Detect(r *model.Resource) model.OwnershipInfo {
	obj := &unstructured.Unstructured{Object: r.Body}
	labels := obj.GetLabels()
	annotations := obj.GetAnnotations()

	argoApp := annotations[annotationArgoCD]
	if argoApp == "" {
		argoApp = labels[labelArgoCDInstance]
	}
	fluxKeys := fluxMarkers(labels, annotations)

	release := annotations[annotationRelease]
	if strings.EqualFold(labels[labelManagedBy], "helm") || release != "" {
		if release == "" {
			release = labels[labelInstance]
		}
		info := model.OwnershipInfo{Manager: model.ManagerHelm, Release: release}

		if d.Release != "" && release != "" && release != d.Release {
			info.Warnings = append(info.Warnings,
				fmt.Sprintf("%s/%s is owned by Helm release %q, not %q", r.Kind, r.Name, release, d.Release))
		}
		if argoApp != "" {
			info.Warnings = append(info.Warnings,
				fmt.Sprintf("%s/%s is also managed by Argo CD application %q", r.Kind, r.Name, argoApp))
		}
		if len(fluxKeys) > 0 {
			info.Warnings = append(info.Warnings,
				fmt.Sprintf("%s/%s also carries Flux markers: %s", r.Kind, r.Name, strings.Join(fluxKeys, ", ")))
		}
		return info
	}

	if argoApp != "" {
		return model.OwnershipInfo{Manager: model.ManagerArgoCD, App: argoApp}
	}

	if len(fluxKeys) > 0 {
		return model.OwnershipInfo{Manager: model.ManagerFlux}
	}

	return model.OwnershipInfo{Manager: model.ManagerUnknown}
}

// fluxMarkers returns the sorted label and annotation keys that mention Flux.
func fluxMarkers(labels, annotations map[string]string) []string {
	var keys []string
	for _, m := range []map[string]string{labels, annotations} {
		for k := range m {
			if strings.Contains(k, fluxMarker) {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
