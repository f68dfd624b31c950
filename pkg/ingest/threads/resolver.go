// Package threads indexes the conversations file. It subtypes every thread
// by its id suffix and owns the thread-to-tenant mapping consulted by every
// downstream record builder.
package threads

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

// Thread id suffixes, checked in this order.
const (
	suffixChannel = "@thread.tacv2"
	suffixGroup   = "@thread.v2"
	suffixPrivate = "@unq.gbl.spaces"
)

// KindOf classifies a thread id by its suffix. Anything unrecognized,
// including the empty id, is generic.
func KindOf(threadID string) types.ThreadKind {
	switch {
	case strings.HasSuffix(threadID, suffixChannel):
		return types.ThreadKindChannel
	case strings.HasSuffix(threadID, suffixGroup):
		return types.ThreadKindGroup
	case strings.HasSuffix(threadID, suffixPrivate):
		return types.ThreadKindPrivate
	default:
		return types.ThreadKindGeneric
	}
}

// Entry is one decoded conversation record: the inner thread object plus
// the tenant id carried on the outer envelope.
type Entry struct {
	Thread   types.Raw
	TenantID string
}

// Resolver maps thread ids to tenant ids and thread kinds. Loaded once,
// then shared read-only across the reply-chain workers.
type Resolver struct {
	mu      sync.RWMutex
	tenants map[string]string
	kinds   map[string]types.ThreadKind
	frozen  bool

	log logging.Logger
	rep errors.Reporter
}

func NewResolver(log logging.Logger, rep errors.Reporter) *Resolver {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if rep == nil {
		rep = errors.NewNopReporter()
	}
	return &Resolver{
		tenants: make(map[string]string),
		kinds:   make(map[string]types.ThreadKind),
		log:     log,
		rep:     rep,
	}
}

// Load indexes decoded conversation entries and returns the thread and
// member records to emit. Entries without a thread id are reported and
// skipped. Load panics if called after Freeze.
func (r *Resolver) Load(entries []Entry) []types.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic(fmt.Errorf("threads: Load after Freeze: %w", errors.ErrPhaseOrder))
	}

	var out []types.Record
	for _, entry := range entries {
		threadID := entry.Thread.Str("id")
		if threadID == "" {
			r.rep.Report(&errors.IngestError{
				Code:    errors.CodeMissingRequiredField,
				Phase:   "conversations",
				Message: "conversation entry has no thread id",
			})
			continue
		}

		kind := KindOf(threadID)
		r.kinds[threadID] = kind
		if entry.TenantID != "" {
			r.tenants[threadID] = entry.TenantID
		}

		info := types.ThreadInfo{
			ThreadID:   threadID,
			Kind:       kind,
			ThreadType: entry.Thread.Str("type"),
			TenantID:   entry.TenantID,
		}
		// Team membership only means anything for channel threads.
		if kind == types.ThreadKindChannel {
			info.TeamID = entry.Thread.Str("teamId")
		}
		applyThreadProperties(&info, entry.Thread)

		out = append(out, info)
		out = append(out, memberRecords(entry.Thread, threadID, entry.TenantID)...)
	}

	r.log.Debug("threads loaded",
		logging.F("entries", len(entries)),
		logging.F("indexed", len(r.kinds)))
	return out
}

func applyThreadProperties(info *types.ThreadInfo, thread types.Raw) {
	if props := thread.Map("threadProperties"); props != nil {
		info.Topic = props.FirstStr("topic", "title")
		info.Description = props.Str("description")
		info.Creator = props.Str("creator")
		info.CreatedAt = props.Str("createdAt")
	}
	if props := thread.Map("properties"); props != nil {
		if v, ok := props["hasMessageDraft"].(bool); ok {
			info.HasDraft = &v
		}
	}
	if roster := thread.Map("rosterSummary"); roster != nil {
		if n := roster.Str("memberCount"); n != "" {
			info.MemberCount = atoiLoose(n)
		}
	}
}

func memberRecords(thread types.Raw, threadID, tenantID string) []types.Record {
	members := thread.ObjectList("members")
	if len(members) == 0 {
		return nil
	}
	out := make([]types.Record, 0, len(members))
	for _, m := range members {
		mri := m.FirstStr("mri", "id")
		if mri == "" {
			continue
		}
		out = append(out, types.Member{
			ThreadID:    threadID,
			TenantID:    tenantID,
			MRI:         mri,
			DisplayName: m.FirstStr("displayName", "friendlyName"),
			Role:        m.Str("role"),
		})
	}
	return out
}

func atoiLoose(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Freeze marks the resolver read-only.
func (r *Resolver) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// TenantFor returns the tenant id recorded for a thread, or "" when the
// thread never appeared in the conversations file.
func (r *Resolver) TenantFor(threadID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[threadID]
}

// KindFor returns the indexed kind for a thread. Threads absent from the
// conversations file still classify by suffix so reply chains referencing
// unknown conversations keep a sensible subtype.
func (r *Resolver) KindFor(threadID string) types.ThreadKind {
	r.mu.RLock()
	kind, ok := r.kinds[threadID]
	r.mu.RUnlock()
	if ok {
		return kind
	}
	return KindOf(threadID)
}
