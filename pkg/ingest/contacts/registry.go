// Package contacts maintains the MRI to display-name mapping built from the
// people file. The registry is loaded once in the first pipeline phase and
// then read concurrently by every later component that enriches identifiers.
package contacts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

// Registry resolves Microsoft Resource Identifiers to display names.
// Safe for concurrent reads once loading has finished.
type Registry struct {
	mu     sync.RWMutex
	names  map[string]string
	frozen bool

	log logging.Logger
	rep errors.Reporter
}

func NewRegistry(log logging.Logger, rep errors.Reporter) *Registry {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if rep == nil {
		rep = errors.NewNopReporter()
	}
	return &Registry{
		names: make(map[string]string),
		log:   log,
		rep:   rep,
	}
}

// Load ingests decoded people entries and returns the contact records to
// emit. Entries without an MRI are reported and skipped; a repeated MRI
// overwrites the earlier name. Load panics if called after Freeze, since a
// mutation during concurrent reads would corrupt the run.
func (r *Registry) Load(entries []types.Raw) []types.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic(fmt.Errorf("contacts: Load after Freeze: %w", errors.ErrPhaseOrder))
	}

	out := make([]types.Contact, 0, len(entries))
	for _, entry := range entries {
		mri := entry.Str("mri")
		if mri == "" {
			r.rep.Report(&errors.IngestError{
				Code:    errors.CodeMissingRequiredField,
				Phase:   "people",
				Subject: entry.FirstStr("displayName", "displayname", "email"),
				Message: "contact entry has no mri",
			})
			continue
		}

		name := entry.FirstStr("displayName", "displayname")
		if name != "" {
			r.names[mri] = name
		}

		out = append(out, types.Contact{
			MRI:               mri,
			DisplayName:       name,
			GivenName:         entry.Str("givenName"),
			Surname:           entry.Str("surname"),
			Email:             entry.Str("email"),
			TenantName:        entry.Str("tenantName"),
			ObjectID:          entry.Str("objectId"),
			UserType:          entry.Str("userType"),
			UserPrincipalName: entry.FirstStr("userPrincipalName", "upn"),
		})
	}

	r.log.Debug("contacts loaded", logging.F("entries", len(entries)), logging.F("named", len(r.names)))
	return out
}

// Freeze marks the registry read-only. Later phases may then share it
// across goroutines without locking overhead concerns.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Len reports how many MRIs have a known display name.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Lookup returns the display name for an identifier. An exact match wins;
// otherwise a containment match in either direction is accepted, since
// participant fields sometimes carry a truncated or prefixed form of the
// registered MRI.
func (r *Registry) Lookup(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.names[id]; ok {
		return name, true
	}
	for mri, name := range r.names {
		if strings.Contains(mri, id) || strings.Contains(id, mri) {
			return name, true
		}
	}
	return "", false
}

// Enrich renders an identifier as "mri (Display Name)" when the name is
// known, or the bare identifier otherwise. Empty input stays empty.
func (r *Registry) Enrich(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := r.Lookup(id); ok {
		return id + " (" + name + ")"
	}
	return id
}
