package model

// ChangeKind is the elementary category of one field-level difference.
type ChangeKind string

const (
	ValueChanged ChangeKind = "value_changed"
	TypeChanged  ChangeKind = "type_changed"
	ItemAdded    ChangeKind = "item_added"
	ItemRemoved  ChangeKind = "item_removed"
)

// FieldChange is one difference at a dot/bracket path such as
// spec.template.spec.containers[0].image.
type FieldChange struct {
	Path     string      `json:"path"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
	Kind     ChangeKind  `json:"change_type"`
}

// RecordStatus is the status of a reported resource. Unchanged resources
// never produce a ChangeRecord.
type RecordStatus string

const (
	StatusAdded   RecordStatus = "added"
	StatusRemoved RecordStatus = "removed"
	StatusChanged RecordStatus = "changed"
)

// ChangeRecord is the diff outcome for one resource identity.
type ChangeRecord struct {
	ResourceKey string        `json:"resource_key"`
	Kind        string        `json:"kind"`
	Name        string        `json:"name"`
	Namespace   string        `json:"namespace"`
	Status      RecordStatus  `json:"status"`
	Changes     []FieldChange `json:"changes"` // Empty unless Status is changed
}

// NewChangeRecord builds a record for r with the given status and changes.
func NewChangeRecord(r *Resource, status RecordStatus, changes []FieldChange) *ChangeRecord {
	if changes == nil {
		changes = []FieldChange{}
	}
	return &ChangeRecord{
		ResourceKey: r.Key(),
		Kind:        r.Kind,
		Name:        r.Name,
		Namespace:   r.Namespace,
		Status:      status,
		Changes:     changes,
	}
}
