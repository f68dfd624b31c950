// Package source reads the export files and unwraps their record
// envelopes. Every file is a JSON array of records whose payload sits under
// one or two levels of "value" nesting depending on the file kind.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/threads"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

type Decoder struct {
	log logging.Logger
	rep errors.Reporter
}

func NewDecoder(log logging.Logger, rep errors.Reporter) *Decoder {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if rep == nil {
		rep = errors.NewNopReporter()
	}
	return &Decoder{log: log, rep: rep}
}

// ReadFile loads one export file as a record list. A file holding a single
// object instead of an array is accepted as a one-record list. Unreadable
// or unparsable files return an error; the caller decides how much of the
// run that aborts.
func (d *Decoder) ReadFile(path string) ([]types.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		var single map[string]interface{}
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, &errors.IngestError{
				Code:    errors.CodeMalformedInput,
				Phase:   "read",
				Subject: path,
				Message: "file is neither a JSON array nor an object",
				Cause:   err,
			}
		}
		records = []map[string]interface{}{single}
	}

	out := make([]types.Raw, 0, len(records))
	for _, r := range records {
		out = append(out, types.Raw(r))
	}
	d.log.Debug("export file read", logging.F("path", path), logging.F("records", len(out)))
	return out, nil
}

// People unwraps people records: the contact object sits directly under
// "value". Records without one are reported and skipped.
func (d *Decoder) People(records []types.Raw) []types.Raw {
	out := make([]types.Raw, 0, len(records))
	for i, rec := range records {
		v := rec.Map("value")
		if v == nil {
			d.reportShape("people", i, "record has no value object")
			continue
		}
		out = append(out, v)
	}
	return out
}

// Conversations unwraps conversation records: the thread object sits under
// "value.value" and the tenant id on the outer record.
func (d *Decoder) Conversations(records []types.Raw) []threads.Entry {
	out := make([]threads.Entry, 0, len(records))
	for i, rec := range records {
		outer := rec.Map("value")
		if outer == nil {
			d.reportShape("conversations", i, "record has no value object")
			continue
		}
		thread := outer.Map("value")
		if thread == nil {
			d.reportShape("conversations", i, "record has no nested value object")
			continue
		}
		out = append(out, threads.Entry{
			Thread:   thread,
			TenantID: rec.Str("tenant_id"),
		})
	}
	return out
}

// ReplyChain is one conversation's message batch. Messages are ordered by
// their map key so repeated runs over the same export emit identically.
type ReplyChain struct {
	ConversationID string
	Messages       []types.Raw
}

// ReplyChains unwraps reply-chain records: "value.value" holds the
// conversation id and a map of messages keyed by message id.
func (d *Decoder) ReplyChains(records []types.Raw) []ReplyChain {
	out := make([]ReplyChain, 0, len(records))
	for i, rec := range records {
		outer := rec.Map("value")
		if outer == nil {
			d.reportShape("replychains", i, "record has no value object")
			continue
		}
		inner := outer.Map("value")
		if inner == nil {
			d.reportShape("replychains", i, "record has no nested value object")
			continue
		}

		convID := inner.Str("conversationId")
		msgMap := inner.Map("messageMap")
		if convID == "" || msgMap == nil {
			d.reportShape("replychains", i, "record lacks conversationId or messageMap")
			continue
		}

		keys := make([]string, 0, len(msgMap))
		for k := range msgMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		msgs := make([]types.Raw, 0, len(keys))
		for _, k := range keys {
			if m, ok := msgMap[k].(map[string]interface{}); ok {
				msgs = append(msgs, types.Raw(m))
			}
		}
		out = append(out, ReplyChain{ConversationID: convID, Messages: msgs})
	}
	return out
}

func (d *Decoder) reportShape(phase string, index int, msg string) {
	d.rep.Report(&errors.IngestError{
		Code:    errors.CodeUnsupportedShape,
		Phase:   phase,
		Subject: fmt.Sprintf("record %d", index),
		Message: msg,
	})
}
