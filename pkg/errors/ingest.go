package errors

import (
	"fmt"
	"sync"
)

// Code classifies a degraded-path event observed during ingestion.
type Code string

const (
	// CodeMalformedInput marks a file that is not valid JSON or whose
	// top-level shape is unexpected. Aborts that file's phase only.
	CodeMalformedInput Code = "malformed_input"

	// CodeMissingRequiredField marks a sub-entry skipped because its
	// identifying field (for example a people entry with no mri) is absent.
	CodeMissingRequiredField Code = "missing_required_field"

	// CodeUnresolvedReference marks a cross-reference that could not be
	// resolved (unknown thread id, unknown mri). The record still ships with
	// the fallback value.
	CodeUnresolvedReference Code = "unresolved_reference"

	// CodePartialContent marks rich content that only partially parsed and
	// degraded to best-effort output.
	CodePartialContent Code = "partial_content"

	// CodeUnsupportedShape marks an entry whose nested structure did not
	// match any known export schema variant.
	CodeUnsupportedShape Code = "unsupported_shape"

	// CodeAmbiguousCategory marks a message that matched more than one
	// primary classification rule; the first rule won.
	CodeAmbiguousCategory Code = "ambiguous_category"
)

// IngestError is a structured record of a degraded-path event. It satisfies
// the error interface but is usually reported, not returned: no single
// malformed record may abort the batch.
type IngestError struct {
	Code    Code
	Phase   string
	Subject string // conversation id, mri, or file name the event concerns
	Message string
	Cause   error
}

func (e *IngestError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s: %s: %s", e.Code, e.Phase, e.Subject, e.Message)
	}
	if e.Phase != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Phase, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Cause
}

// Is maps event codes onto the matching sentinel so callers holding an
// IngestError can use the same errors.Is checks as everywhere else.
func (e *IngestError) Is(target error) bool {
	return target == ErrMalformedInput && e.Code == CodeMalformedInput
}

// Reporter receives degraded-path events. It is the in-process face of the
// error-reporting channel that surrounds the record stream.
type Reporter interface {
	Report(e *IngestError)
}

// Collector is a Reporter that accumulates events in memory. Safe for
// concurrent use by reply-chain workers.
type Collector struct {
	mu     sync.Mutex
	events []*IngestError
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report records one degraded-path event.
func (c *Collector) Report(e *IngestError) {
	if e == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the recorded events in report order.
func (c *Collector) Events() []*IngestError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*IngestError, len(c.events))
	copy(out, c.events)
	return out
}

// CountByCode returns the number of recorded events per code.
func (c *Collector) CountByCode() map[Code]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[Code]int)
	for _, e := range c.events {
		counts[e.Code]++
	}
	return counts
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// nopReporter discards all events.
type nopReporter struct{}

func (nopReporter) Report(e *IngestError) {}

// NewNopReporter returns a Reporter that discards all events.
func NewNopReporter() Reporter {
	return nopReporter{}
}
