package quote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-seasonal/pkg/types"
)

type fakeQuoter struct {
	calls      atomic.Int32
	generation atomic.Uint64
	// started receives the amount of every upstream call
	started chan string
	// release, when set, holds each call until it is closed or the call is cancelled
	release chan struct{}
	// switchBackend makes the next call see a replaced backend
	switchBackend atomic.Bool
}

func (f *fakeQuoter) Quote(ctx context.Context, req types.SwapRequest) types.QuoteResult {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- req.AmountIn
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	if f.switchBackend.CompareAndSwap(true, false) {
		f.generation.Add(1)
	}
	return types.QuoteResult{OutputAmount: req.AmountIn + "0", MinimumReceived: "1", PriceImpact: "0.1"}
}

func (f *fakeQuoter) Generation() uint64 { return f.generation.Load() }

func swapReq(amt string) types.SwapRequest {
	return types.SwapRequest{TokenIn: "ETH", TokenOut: "USDC", AmountIn: amt, Slippage: 0.5}
}

func receive(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "updates closed")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no quote delivered")
	}
	return Update{}
}

func assertNoUpdate(t *testing.T, ch <-chan Update, wait time.Duration) {
	t.Helper()
	select {
	case u := <-ch:
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(wait):
	}
}

func TestDebounceCoalesces(t *testing.T) {
	q := &fakeQuoter{}
	d := NewDebouncer(context.Background(), q, 30*time.Millisecond, zerolog.Nop())
	defer d.Close()

	d.Request(swapReq("1"))
	d.Request(swapReq("12"))
	last := d.Request(swapReq("123"))

	u := receive(t, d.Updates())
	assert.Equal(t, last, u.Seq)
	assert.Equal(t, "123", u.Request.AmountIn)
	assert.Equal(t, "1230", u.Result.OutputAmount)
	assert.EqualValues(t, 1, q.calls.Load())
}

func TestZeroAmountAnsweredImmediately(t *testing.T) {
	q := &fakeQuoter{}
	d := NewDebouncer(context.Background(), q, time.Hour, zerolog.Nop())
	defer d.Close()

	d.Request(swapReq("5"))
	d.Request(swapReq(""))

	u := receive(t, d.Updates())
	assert.Equal(t, types.ZeroQuote(), u.Result)
	assert.Zero(t, q.calls.Load())
}

func TestSupersededQuoteDropped(t *testing.T) {
	q := &fakeQuoter{started: make(chan string, 2), release: make(chan struct{})}
	d := NewDebouncer(context.Background(), q, 10*time.Millisecond, zerolog.Nop())
	defer d.Close()

	d.Request(swapReq("1"))
	assert.Equal(t, "1", <-q.started)

	// cancels the in-flight call for "1"
	d.Request(swapReq("2"))
	assert.Equal(t, "2", <-q.started)
	close(q.release)

	u := receive(t, d.Updates())
	assert.Equal(t, "2", u.Request.AmountIn)
	assertNoUpdate(t, d.Updates(), 50*time.Millisecond)
}

func TestBackendSwitchDropsPendingQuote(t *testing.T) {
	q := &fakeQuoter{}
	q.switchBackend.Store(true)
	d := NewDebouncer(context.Background(), q, 10*time.Millisecond, zerolog.Nop())
	defer d.Close()

	d.Request(swapReq("1"))
	assertNoUpdate(t, d.Updates(), 100*time.Millisecond)
	assert.EqualValues(t, 1, q.calls.Load())

	d.Request(swapReq("3"))
	assert.Equal(t, "30", receive(t, d.Updates()).Result.OutputAmount)
}

func TestCloseStopsDelivery(t *testing.T) {
	q := &fakeQuoter{}
	d := NewDebouncer(context.Background(), q, 20*time.Millisecond, zerolog.Nop())

	d.Request(swapReq("1"))
	d.Close()
	d.Close()

	_, ok := <-d.Updates()
	assert.False(t, ok)
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, q.calls.Load())
}
