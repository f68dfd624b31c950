package classify

import (
	"strings"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// mentions extracts properties.mentions records. The export splits long
// display names across consecutive entries for the same MRI, so entries
// group by MRI and their name fragments rejoin into one record.
func (c *Classifier) mentions(msg types.Raw, conversationID, tenantID string) []types.Record {
	entries := msg.Map("properties").ObjectList("mentions")
	if len(entries) == 0 {
		return nil
	}

	type group struct {
		mentionType string
		parts       []string
	}
	order := make([]string, 0, len(entries))
	groups := make(map[string]*group, len(entries))

	for _, m := range entries {
		mri := m.Str("mri")
		if mri == "" {
			continue
		}
		g, ok := groups[mri]
		if !ok {
			g = &group{mentionType: m.Str("mentionType")}
			groups[mri] = g
			order = append(order, mri)
		}
		g.parts = append(g.parts, m.Str("displayName"))
	}

	out := make([]types.Record, 0, len(order))
	for _, mri := range order {
		g := groups[mri]
		name := joinNameFragments(g.parts)
		if name == "" {
			continue
		}
		out = append(out, types.Mention{
			TenantID:       tenantID,
			ConversationID: conversationID,
			MessageID:      msg.Str("id"),
			MRI:            mri,
			MentionType:    g.mentionType,
			DisplayName:    name,
		})
	}
	return out
}

// joinNameFragments reassembles a split display name, tightening the
// spacing the split introduced around punctuation.
func joinNameFragments(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	name := strings.Join(kept, " ")
	return strings.NewReplacer(" ,", ",", "( ", "(", " )", ")").Replace(name)
}
