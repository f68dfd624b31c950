// Package attachments merges the structured attachment lists carried in
// message properties with the media surfaced by markup cleaning, emitting
// one record per distinct resource.
package attachments

import (
	"strings"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/htmlclean"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// Owner identifies the message an attachment belongs to.
type Owner struct {
	TenantID       string
	ConversationID string
	MessageID      string
}

// Extract builds the attachment records for one message from its
// properties plus the media found while cleaning its body. Entries naming
// the same resource through both paths collapse to one record, keyed by
// URL and type, or by name when no URL is known.
func Extract(props types.Raw, media []htmlclean.Media, owner Owner) []types.Attachment {
	var out []types.Attachment
	seen := make(map[string]struct{})

	add := func(a types.Attachment) {
		a.TenantID = owner.TenantID
		a.ConversationID = owner.ConversationID
		a.ParentMessageID = owner.MessageID
		key := a.URL + "\x00" + a.Type
		if a.URL == "" {
			key = a.Name + "\x00" + a.Type
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}

	for _, l := range props.ObjectList("links") {
		url := l.FirstStr("url", "itemid")
		if url == "" {
			continue
		}
		add(types.Attachment{Type: types.AttachmentTypeLink, URL: url})
	}

	for _, f := range props.ObjectList("files") {
		name := f.FirstStr("fileName", "title")
		ftype := f.FirstStr("fileType", "type")
		if ftype == "" {
			ftype = types.AttachmentTypeFile
		}
		add(types.Attachment{Type: ftype, Name: name, URL: f.FirstStr("objectUrl", "url")})
	}

	for _, m := range media {
		add(types.Attachment{Type: m.Type, Name: m.Name, URL: m.URL})
	}

	return out
}

// FileNamesAsContent renders the file names from a files property as a
// display line, used when a file-share message has no body of its own.
func FileNamesAsContent(files interface{}) string {
	entries := types.Raw{"files": files}.ObjectList("files")
	names := make([]string, 0, len(entries))
	for _, f := range entries {
		if name := f.FirstStr("fileName", "title"); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " | ")
}
