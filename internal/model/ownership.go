package model

// Manager identifies the system attributed as responsible for a resource.
type Manager string

const (
	ManagerHelm    Manager = "helm"
	ManagerArgoCD  Manager = "argocd"
	ManagerFlux    Manager = "flux"
	ManagerUnknown Manager = "unknown"
)

// OwnershipInfo is the attribution result for one resource.
type OwnershipInfo struct {
	Manager  Manager  `json:"manager"`
	Release  string   `json:"release,omitempty"`
	App      string   `json:"app,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
