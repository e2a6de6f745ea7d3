package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// DmenuFormatter formats entries for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes entries in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, entries []Entry) error {
	now := f.opts.now()
	for i := range entries {
		line := f.formatLine(i+1, &entries[i], now)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single entry line.
func (f *DmenuFormatter) formatLine(index int, e *Entry, now time.Time) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, e, now)); err == nil {
			return buf.String()
		}
	}

	// Default format: index | age | group | title: text
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowAge {
		parts = append(parts, age(e.CreatedAt, now))
	}

	if f.opts.ShowGroup {
		parts = append(parts, groupName(e.Group))
	}

	content := e.Title
	if e.Text != "" {
		text := sanitizeText(e.Text, f.opts.BodyMaxLen, f.opts.IncludeNewline)
		switch {
		case text == "":
		case content == "":
			content = text
		default:
			content += ": " + text
		}
	}
	parts = append(parts, content)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index     int
	Entry     *Entry
	Age       string
	Remaining string
}

func newTemplateData(index int, e *Entry, now time.Time) templateData {
	return templateData{
		Index:     index,
		Entry:     e,
		Age:       age(e.CreatedAt, now),
		Remaining: remaining(e, now),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs(opts FormatterOptions) template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"age": func(t time.Time) string {
			return age(t, opts.now())
		},
		"typeIcon": func(typ string) string {
			switch typ {
			case "error":
				return "!"
			case "warn":
				return "?"
			case "success":
				return "+"
			default:
				return "-"
			}
		},
	}
}

// age returns a compact time since t.
func age(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// remaining describes the countdown of e.
func remaining(e *Entry, now time.Time) string {
	if e.Sticky() {
		return "sticky"
	}
	s := humanize.RelTime(now, now.Add(*e.Remaining), "left", "closing")
	if e.Paused {
		s = "paused, " + s
	}
	return s
}

// sanitizeText cleans up text for single-line display.
func sanitizeText(text string, maxLen int, includeNewline bool) string {
	if !includeNewline {
		text = strings.ReplaceAll(text, "\n", " ")
		text = strings.ReplaceAll(text, "\r", "")
	}

	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}

	text = strings.TrimSpace(text)

	if maxLen > 0 && len(text) > maxLen {
		if maxLen <= 3 {
			return text[:maxLen]
		}
		return text[:maxLen-3] + "..."
	}

	return text
}
