// Package pipeline drives a full export ingestion run. The three phases
// are strictly ordered: people load the contact registry, conversations
// load the thread resolver, and only then are reply-chain messages
// classified, so every emitted record sees frozen lookup state.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/contacts"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/observability"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/sink"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/source"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/threads"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

// Canonical export file names. Any other .json file in the export holds
// reply-chain message data.
const (
	PeopleFileName        = "output_people.json"
	ConversationsFileName = "output_conversations.json"
)

// Options configure one run.
type Options struct {
	// ExportDir is scanned for export .json files when the explicit lists
	// below are empty.
	ExportDir string

	// PeopleFile and ConversationsFile override the canonical file names
	// when scanning ExportDir.
	PeopleFile        string
	ConversationsFile string

	PeoplePaths        []string
	ConversationsPaths []string
	ReplyChainPaths    []string

	// Workers bounds concurrent reply-chain classification. Values below 1
	// run single threaded.
	Workers int

	Log      logging.Logger
	Reporter errors.Reporter
	Metrics  *observability.IngestMetrics
}

// Result summarizes one run.
type Result struct {
	JobID    string
	Counts   map[string]int
	Degraded int
	Elapsed  time.Duration
}

type Pipeline struct {
	opts Options
	log  logging.Logger
	rep  errors.Reporter

	collector *errors.Collector
	dec       *source.Decoder
	reg       *contacts.Registry
	res       *threads.Resolver
}

func New(opts Options) *Pipeline {
	if opts.Log == nil {
		opts.Log = logging.NewNopLogger()
	}
	collector := errors.NewCollector()
	var rep errors.Reporter = collector
	if opts.Reporter != nil {
		rep = teeReporter{collector, opts.Reporter}
	}
	if opts.Metrics != nil {
		rep = teeReporter{rep, metricsReporter{opts.Metrics}}
	}

	p := &Pipeline{
		opts:      opts,
		log:       opts.Log,
		rep:       rep,
		collector: collector,
	}
	p.dec = source.NewDecoder(p.log, p.rep)
	p.reg = contacts.NewRegistry(p.log, p.rep)
	p.res = threads.NewResolver(p.log, p.rep)
	return p
}

// Run executes the three phases against the sink. A malformed file aborts
// only the records that file would have contributed; the run itself fails
// only on sink errors, cancellation, or an unusable export directory.
func (p *Pipeline) Run(ctx context.Context, out sink.RecordSink) (*Result, error) {
	start := time.Now()
	jobID := uuid.NewString()
	log := p.log.With(logging.F("job_id", jobID))

	people, convs, chains, err := p.resolveFiles()
	if err != nil {
		return nil, err
	}
	log.Info("ingestion run starting",
		logging.F("people_files", len(people)),
		logging.F("conversation_files", len(convs)),
		logging.F("replychain_files", len(chains)),
		logging.F("workers", p.workers()))

	counts := make(map[string]int)
	emit := func(rec types.Record) error {
		if err := out.Emit(ctx, rec); err != nil {
			return err
		}
		counts[rec.Category()]++
		p.opts.Metrics.ObserveRecord(rec.Category())
		return nil
	}

	if err := p.runPeople(ctx, people, emit); err != nil {
		return nil, err
	}
	p.reg.Freeze()

	if err := p.runConversations(ctx, convs, emit); err != nil {
		return nil, err
	}
	p.res.Freeze()

	if err := p.runReplyChains(ctx, chains, emit); err != nil {
		return nil, err
	}

	res := &Result{
		JobID:    jobID,
		Counts:   counts,
		Degraded: p.collector.Len(),
		Elapsed:  time.Since(start),
	}
	log.Info("ingestion run finished",
		logging.F("records", total(counts)),
		logging.F("degraded", res.Degraded),
		logging.F("elapsed", res.Elapsed.String()))
	return res, nil
}

// Events returns the degraded-input events accumulated so far.
func (p *Pipeline) Events() []*errors.IngestError {
	return p.collector.Events()
}

// resolveFiles returns the categorized export files, scanning ExportDir
// when no explicit lists were given.
func (p *Pipeline) resolveFiles() (people, convs, chains []string, err error) {
	if len(p.opts.PeoplePaths)+len(p.opts.ConversationsPaths)+len(p.opts.ReplyChainPaths) > 0 {
		return p.opts.PeoplePaths, p.opts.ConversationsPaths, p.opts.ReplyChainPaths, nil
	}

	peopleName := p.opts.PeopleFile
	if peopleName == "" {
		peopleName = PeopleFileName
	}
	convsName := p.opts.ConversationsFile
	if convsName == "" {
		convsName = ConversationsFileName
	}

	entries, err := os.ReadDir(p.opts.ExportDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scan export dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(p.opts.ExportDir, e.Name())
		switch e.Name() {
		case peopleName:
			people = append(people, path)
		case convsName:
			convs = append(convs, path)
		default:
			chains = append(chains, path)
		}
	}
	sort.Strings(chains)
	return people, convs, chains, nil
}

func (p *Pipeline) runPeople(ctx context.Context, paths []string, emit func(types.Record) error) error {
	defer p.observePhase("people")()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := p.dec.ReadFile(path)
		if err != nil {
			p.reportFile("people", path, err)
			continue
		}
		p.opts.Metrics.ObserveFile("people", "ok")
		for _, contact := range p.reg.Load(p.dec.People(records)) {
			if err := emit(contact); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) runConversations(ctx context.Context, paths []string, emit func(types.Record) error) error {
	defer p.observePhase("conversations")()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := p.dec.ReadFile(path)
		if err != nil {
			p.reportFile("conversations", path, err)
			continue
		}
		p.opts.Metrics.ObserveFile("conversations", "ok")
		for _, rec := range p.res.Load(p.dec.Conversations(records)) {
			if err := emit(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) reportFile(phase, path string, err error) {
	p.opts.Metrics.ObserveFile(phase, "skipped")
	p.log.Warn("export file skipped", logging.F("phase", phase), logging.F("path", path), logging.Err(err))
	if ie, ok := err.(*errors.IngestError); ok {
		p.rep.Report(ie)
		return
	}
	p.rep.Report(&errors.IngestError{
		Code:    errors.CodeMalformedInput,
		Phase:   phase,
		Subject: path,
		Message: "export file unreadable",
		Cause:   err,
	})
}

func (p *Pipeline) workers() int {
	if p.opts.Workers < 1 {
		return 1
	}
	return p.opts.Workers
}

func (p *Pipeline) observePhase(phase string) func() {
	start := time.Now()
	return func() {
		if p.opts.Metrics != nil {
			p.opts.Metrics.PhaseSeconds.WithLabelValues(phase).Observe(time.Since(start).Seconds())
		}
	}
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

// teeReporter fans one degraded-input event out to two reporters.
type teeReporter struct {
	a, b errors.Reporter
}

func (t teeReporter) Report(e *errors.IngestError) {
	t.a.Report(e)
	t.b.Report(e)
}

type metricsReporter struct {
	m *observability.IngestMetrics
}

func (r metricsReporter) Report(e *errors.IngestError) {
	r.m.ObserveDegraded(string(e.Code), e.Phase)
}
