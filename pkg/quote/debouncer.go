// Package quote coalesces rapid quote requests into one upstream call.
package quote

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dex-seasonal/pkg/amount"
	"dex-seasonal/pkg/types"
)

const DefaultDelay = 500 * time.Millisecond

// Quoter is satisfied by *dex.Facade.
type Quoter interface {
	Quote(ctx context.Context, req types.SwapRequest) types.QuoteResult
	Generation() uint64
}

// Update is a delivered quote and the request it answers.
type Update struct {
	Seq     uint64
	Request types.SwapRequest
	Result  types.QuoteResult
}

// Debouncer waits for input to settle before quoting. Only the answer to the
// latest request is delivered, and only while the backend that produced it
// is still installed.
type Debouncer struct {
	quoter Quoter
	delay  time.Duration
	log    zerolog.Logger

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool
	out      chan Update

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDebouncer(ctx context.Context, q Quoter, delay time.Duration, log zerolog.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Debouncer{
		quoter: q,
		delay:  delay,
		log:    log.With().Str("component", "quote").Logger(),
		out:    make(chan Update, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Updates delivers quotes. A slow reader only ever sees the newest one.
func (d *Debouncer) Updates() <-chan Update { return d.out }

// Request supersedes every earlier request. Zero amounts are answered right
// away with the zero quote.
func (d *Debouncer) Request(req types.SwapRequest) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.seq
	}
	d.seq++
	seq := d.seq
	d.stopLocked()

	if amount.IsZero(req.AmountIn) {
		d.deliverLocked(Update{Seq: seq, Request: req, Result: types.ZeroQuote()})
		return seq
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, req) })
	return seq
}

func (d *Debouncer) fire(seq uint64, req types.SwapRequest) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.inflight = cancel
	gen := d.quoter.Generation()
	d.mu.Unlock()
	defer cancel()

	res := d.quoter.Quote(ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed, seq != d.seq, ctx.Err() != nil:
		d.log.Debug().Uint64("seq", seq).Msg("dropping superseded quote")
		return
	case d.quoter.Generation() != gen:
		d.log.Debug().Uint64("seq", seq).Msg("dropping quote from replaced backend")
		return
	}
	d.deliverLocked(Update{Seq: seq, Request: req, Result: res})
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
}

func (d *Debouncer) deliverLocked(u Update) {
	select {
	case <-d.out:
	default:
	}
	d.out <- u
}

// Close cancels pending work and closes Updates.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.seq++
	d.stopLocked()
	d.cancel()
	close(d.out)
}
