package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

// PlainFormatter formats entries as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes entries as plain text.
func (f *PlainFormatter) Format(w io.Writer, entries []Entry) error {
	now := f.opts.now()
	for i := range entries {
		if err := f.formatEntry(w, i+1, &entries[i], now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatEntry(w io.Writer, index int, e *Entry, now time.Time) error {
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(index, e, now))
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	if f.opts.ShowGroup {
		fmt.Fprintf(&sb, "<%s> ", groupName(e.Group))
	}

	if e.Type != "" {
		fmt.Fprintf(&sb, "%s: ", e.Type)
	}

	title := e.Title
	if title == "" {
		title = fmt.Sprintf("#%d", e.ID)
	}
	sb.WriteString(title)

	if f.opts.ShowAge {
		fmt.Fprintf(&sb, " (%s, %s)", age(e.CreatedAt, now), remaining(e, now))
	}

	sb.WriteString("\n")

	if e.Text != "" {
		text := e.Text
		if !f.opts.IncludeNewline {
			text = strings.ReplaceAll(text, "\n", " ")
		}
		if f.opts.BodyMaxLen > 3 && len(text) > f.opts.BodyMaxLen {
			text = text[:f.opts.BodyMaxLen-3] + "..."
		}
		sb.WriteString("    " + text + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
