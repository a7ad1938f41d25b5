package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Resource is the JSON form of one report entry.
type Resource struct {
	ResourceKey string                 `json:"resource_key"`
	Kind        string                 `json:"kind"`
	Name        string                 `json:"name"`
	Namespace   string                 `json:"namespace"`
	Status      model.RecordStatus     `json:"status"`
	Changes     []model.FieldChange    `json:"changes"`
	Risks       []model.RiskAnnotation `json:"risks"`
	MaxSeverity model.Severity         `json:"max_severity"`
	Ownership   *model.OwnershipInfo   `json:"ownership,omitempty"`
}

// Document is the JSON form of a report.
type Document struct {
	Resources []Resource `json:"resources"`
	Summary   model.Summary  `json:"summary"`
}

// JSON writes the report as an indented JSON document.
func JSON(w io.Writer, report *model.Report, riskOnly bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewDocument(report, riskOnly)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// NewDocument builds the JSON form of report.
func NewDocument(report *model.Report, riskOnly bool) Document {
	if riskOnly {
		report = report.RiskOnly()
	}

	out := Document{
		Resources: make([]Resource, 0, len(report.Entries)),
		Summary:   report.Summary(),
	}
	for _, e := range report.Entries {
		risks := e.Risks
		if risks == nil {
			risks = []model.RiskAnnotation{}
		}
		out.Resources = append(out.Resources, Resource{
			ResourceKey: e.Record.ResourceKey,
			Kind:        e.Record.Kind,
			Name:        e.Record.Name,
			Namespace:   e.Record.Namespace,
			Status:      e.Record.Status,
			Changes:     e.Record.Changes,
			Risks:       risks,
			MaxSeverity: e.MaxSeverity(),
			Ownership:   e.Ownership,
		})
	}
	return out
}
