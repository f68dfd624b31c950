package pipeline

import (
	"context"
	"sync"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/classify"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/source"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

// runReplyChains classifies every message file. Chains are classified by a
// bounded worker pool over the frozen registries; results are buffered per
// chain and emitted in chain order so output stays deterministic.
func (p *Pipeline) runReplyChains(ctx context.Context, paths []string, emit func(types.Record) error) error {
	defer p.observePhase("replychains")()
	cls := classify.NewClassifier(p.reg, p.res, p.log, p.rep)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, err := p.dec.ReadFile(path)
		if err != nil {
			p.reportFile("replychains", path, err)
			continue
		}

		p.opts.Metrics.ObserveFile("replychains", "ok")
		chains := p.dec.ReplyChains(records)
		for _, recs := range p.classifyChains(ctx, cls, chains) {
			for _, rec := range recs {
				if err := emit(rec); err != nil {
					return err
				}
			}
		}
		p.log.Debug("reply-chain file classified",
			logging.F("path", path),
			logging.F("chains", len(chains)))
	}
	return nil
}

// classifyChains fans the chains of one file across the worker pool. The
// returned slice is indexed like the input, so callers emit in input order
// regardless of which worker finished first.
func (p *Pipeline) classifyChains(ctx context.Context, cls *classify.Classifier, chains []source.ReplyChain) [][]types.Record {
	results := make([][]types.Record, len(chains))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.classifyChain(ctx, cls, chains[i])
			}
		}()
	}

dispatch:
	for i := range chains {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *Pipeline) classifyChain(ctx context.Context, cls *classify.Classifier, chain source.ReplyChain) []types.Record {
	var out []types.Record
	for _, msg := range chain.Messages {
		if ctx.Err() != nil {
			return out
		}
		if p.opts.Metrics != nil {
			p.opts.Metrics.MessagesInFlight.Inc()
		}
		out = append(out, cls.Classify(msg, chain.ConversationID)...)
		if p.opts.Metrics != nil {
			p.opts.Metrics.MessagesInFlight.Dec()
		}
	}
	return out
}
