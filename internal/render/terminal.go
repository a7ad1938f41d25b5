package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/helm-preview/helm-preview/internal/model"
)

// Options controls terminal output.
type Options struct {
	NoColor  bool
	RiskOnly bool
	ShowAll  bool
}

type palette struct {
	added   func(a ...interface{}) string
	removed func(a ...interface{}) string
	changed func(a ...interface{}) string
	faint   func(a ...interface{}) string
	heading func(a ...interface{}) string
	levels  map[model.Severity]func(a ...interface{}) string
}

func newPalette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		added:   mk(color.FgGreen),
		removed: mk(color.FgRed),
		changed: mk(color.FgYellow),
		faint:   mk(color.Faint),
		heading: mk(color.Bold),
		levels: map[model.Severity]func(a ...interface{}) string{
			model.SeveritySafe:    mk(color.FgGreen),
			model.SeverityWarning: mk(color.FgYellow, color.Bold),
			model.SeverityDanger:  mk(color.FgRed, color.Bold),
		},
	}
}

// Terminal writes a human readable report to w.
func Terminal(w io.Writer, report *model.Report, opts Options) error {
	if opts.RiskOnly {
		report = report.RiskOnly()
	}
	p := newPalette(opts.NoColor)

	if len(report.Entries) == 0 {
		if _, err := fmt.Fprintln(w, p.faint("No changes.")); err != nil {
			return err
		}
		return writeSummary(w, p, report.Summary())
	}

	for _, entry := range report.Entries {
		if err := writeEntry(w, p, entry); err != nil {
			return err
		}
	}

	return writeSummary(w, p, report.Summary())
}

func writeEntry(w io.Writer, p palette, entry model.Entry) error {
	record := entry.Record

	var header string
	switch record.Status {
	case model.StatusAdded:
		header = p.added("+ " + describe(record))
	case model.StatusRemoved:
		header = p.removed("- " + describe(record))
	case model.StatusChanged:
		header = p.changed("~ " + describe(record))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.heading(header))

	if info := entry.Ownership; info != nil && info.Manager != model.ManagerUnknown {
		owner := string(info.Manager)
		switch {
		case info.Release != "":
			owner += " release " + info.Release
		case info.App != "":
			owner += " app " + info.App
		}
		fmt.Fprintf(&b, "  %s\n", p.faint("managed by "+owner))
	}
	if entry.Ownership != nil {
		for _, warning := range entry.Ownership.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", p.levels[model.SeverityWarning]("!"), warning)
		}
	}

	for _, change := range record.Changes {
		switch change.Kind {
		case model.ItemAdded:
			fmt.Fprintf(&b, "    %s %s: %s\n", p.added("+"), change.Path, formatValue(change.NewValue))
		case model.ItemRemoved:
			fmt.Fprintf(&b, "    %s %s: %s\n", p.removed("-"), change.Path, formatValue(change.OldValue))
		default:
			fmt.Fprintf(&b, "    %s %s: %s -> %s\n", p.changed("~"), change.Path,
				p.removed(formatValue(change.OldValue)), p.added(formatValue(change.NewValue)))
		}
	}

	for _, risk := range entry.Risks {
		level := p.levels[risk.Severity](strings.ToUpper(risk.Severity.String()))
		fmt.Fprintf(&b, "  %s [%s] %s\n", level, risk.Rule, risk.Message)
	}

	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(w io.Writer, p palette, s model.Summary) error {
	line := fmt.Sprintf("%s, %s, %s, %d unchanged",
		p.added(fmt.Sprintf("%d added", s.Added)),
		p.removed(fmt.Sprintf("%d removed", s.Removed)),
		p.changed(fmt.Sprintf("%d changed", s.Changed)),
		s.Unchanged)
	if s.Warning > 0 || s.Danger > 0 {
		line += fmt.Sprintf(" | %s, %s",
			p.levels[model.SeverityWarning](fmt.Sprintf("%d warning", s.Warning)),
			p.levels[model.SeverityDanger](fmt.Sprintf("%d danger", s.Danger)))
	}
	_, err := fmt.Fprintln(w, p.heading("Summary:"), line)
	return err
}

func describe(record *model.ChangeRecord) string {
	return fmt.Sprintf("%s %s/%s", record.Kind, record.Namespace, record.Name)
}

// formatValue renders a value on one line. Scalars print as is, containers
// as compact JSON.
func formatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", value)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", value)
	}
}
