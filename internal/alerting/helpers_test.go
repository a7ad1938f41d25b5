package alerting

import "github.com/helm-preview/helm-preview/internal/model"

func testNotification(severity model.Severity) *Notification {
	svc := &model.Resource{APIVersion: "v1", Kind: "Service", Namespace: "apps", Name: "web"}
	entry := model.Entry{
		Record: model.NewChangeRecord(svc, model.StatusChanged, []model.FieldChange{
			{Path: "spec.type", OldValue: "ClusterIP", NewValue: "LoadBalancer", Kind: model.ValueChanged},
		}),
		Risks: []model.RiskAnnotation{},
	}
	if severity > model.SeveritySafe {
		entry.Risks = append(entry.Risks, model.RiskAnnotation{
			Severity: severity,
			Rule:     "service_type_change",
			Message:  "Service type changed from ClusterIP to LoadBalancer",
			Path:     "spec.type",
		})
	}

	return &Notification{
		Release:   "web",
		Namespace: "apps",
		Chart:     "./charts/web",
		Report:    &model.Report{Entries: []model.Entry{entry}, Unchanged: 3},
	}
}
