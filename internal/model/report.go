package model

// Entry is the analysis result for one resource that is not unchanged.
type Entry struct {
	Record    *ChangeRecord    `json:"record"`
	Risks     []RiskAnnotation `json:"risks"`
	Ownership *OwnershipInfo   `json:"ownership,omitempty"`
}

// MaxSeverity returns the highest severity among the entry's annotations.
func (e Entry) MaxSeverity() Severity {
	return MaxSeverity(e.Risks)
}

// Report is the result of one analysis run.
type Report struct {
	Entries   []Entry `json:"entries"`
	Unchanged int     `json:"unchanged"`
}

// Summary counts report entries by status and by highest severity.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Warning   int `json:"warning"`
	Danger    int `json:"danger"`
}

// MaxSeverity returns the highest severity across all entries.
func (r *Report) MaxSeverity() Severity {
	highest := SeveritySafe
	for _, e := range r.Entries {
		if s := e.MaxSeverity(); s > highest {
			highest = s
		}
	}
	return highest
}

// RiskOnly returns a copy of the report keeping only entries with at least
// one warning or danger annotation.
func (r *Report) RiskOnly() *Report {
	filtered := &Report{Entries: []Entry{}, Unchanged: r.Unchanged}
	for _, e := range r.Entries {
		if e.MaxSeverity() >= SeverityWarning {
			filtered.Entries = append(filtered.Entries, e)
		}
	}
	return filtered
}

// Summary computes status and severity counts.
func (r *Report) Summary() Summary {
	s := Summary{Unchanged: r.Unchanged}
	for _, e := range r.Entries {
		switch e.Record.Status {
		case StatusAdded:
			s.Added++
		case StatusRemoved:
			s.Removed++
		case StatusChanged:
			s.Changed++
		}
		switch e.MaxSeverity() {
		case SeverityDanger:
			s.Danger++
		case SeverityWarning:
			s.Warning++
		}
	}
	return s
}
