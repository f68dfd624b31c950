// Package participants renders participant identifiers into the canonical
// display strings used by call, meeting, and thread records.
package participants

import (
	"fmt"
	"strings"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/contacts"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// Formatter renders participant values using the contact registry for
// name enrichment. Stateless beyond the registry reference.
type Formatter struct {
	reg *contacts.Registry
}

func NewFormatter(reg *contacts.Registry) *Formatter {
	return &Formatter{reg: reg}
}

// Format renders a single identifier as "mri (Display Name)", or the bare
// identifier when no contact matches.
func (f *Formatter) Format(id string) string {
	return f.reg.Enrich(id)
}

// FormatWithDuration appends the per-participant call duration to the
// enriched identifier.
func (f *Formatter) FormatWithDuration(id string, seconds int) string {
	base := f.reg.Enrich(id)
	if base == "" {
		return ""
	}
	return withDuration(base, seconds)
}

func withDuration(base string, seconds int) string {
	return fmt.Sprintf("%s - Duration: %d seconds", base, seconds)
}

// FormatEntry renders one participant value of any shape. Object entries
// use their id field enriched, with a differing display name appended in
// brackets and a duration appended when present. String entries enrich
// directly. Anything else renders through fmt.
func (f *Formatter) FormatEntry(p interface{}) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return f.reg.Enrich(v)
	case map[string]interface{}:
		return f.formatObject(types.Raw(v))
	case types.Raw:
		return f.formatObject(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (f *Formatter) formatObject(p types.Raw) string {
	id := p.FirstStr("id", "mri", "participantId")
	display := p.Str("displayName")

	var out string
	switch {
	case id != "":
		out = f.reg.Enrich(id)
		if display != "" && display != id {
			out = out + " [" + display + "]"
		}
	default:
		out = display
	}
	if out == "" {
		return ""
	}

	if d, ok := durationSeconds(p["duration"]); ok {
		out = withDuration(out, d)
	}
	return out
}

func durationSeconds(v interface{}) (int, bool) {
	switch d := v.(type) {
	case float64:
		return int(d), true
	case int:
		return d, true
	default:
		return 0, false
	}
}

// FormatList renders a participant collection on a single line, entries
// joined by "; " in the source order. A scalar value renders directly.
func (f *Formatter) FormatList(v interface{}) string {
	list, ok := v.([]interface{})
	if !ok {
		return f.FormatEntry(v)
	}
	parts := make([]string, 0, len(list))
	for _, p := range list {
		if s := f.FormatEntry(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

// FormatLines renders a participant collection one entry per line, in the
// source order. Empty entries are dropped. A scalar value renders as a
// single line.
func (f *Formatter) FormatLines(v interface{}) string {
	list, ok := v.([]interface{})
	if !ok {
		return f.FormatEntry(v)
	}
	lines := make([]string, 0, len(list))
	for _, p := range list {
		if line := f.FormatEntry(p); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
