package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/PaceMan-MCSR/pacemanbot-sub000/internal/paceman"
)

type recordSource interface {
	Records(ctx context.Context) <-chan *paceman.Record
	Close()
}

type recordHandler interface {
	Handle(ctx context.Context, rec *paceman.Record)
}

// relay moves records from the feed into the dispatcher one at a time, so passes
// never overlap and notifications go out in feed order.
type relay struct {
	source  recordSource
	handler recordHandler

	wg sync.WaitGroup
}

func newRelay(source recordSource, handler recordHandler) *relay {
	return &relay{source: source, handler: handler}
}

// Start begins relaying in the background
func (r *relay) Start(ctx context.Context) {
	slog.Info("Starting feed relay")

	records := r.source.Records(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		handled := 0
		for rec := range records {
			r.handler.Handle(ctx, rec)
			handled++
		}
		slog.Info("Feed relay stopped", "records", handled)
	}()
}

// Stop closes the feed and waits for the in-flight pass to finish
func (r *relay) Stop() {
	r.source.Close()
	r.wg.Wait()
}
