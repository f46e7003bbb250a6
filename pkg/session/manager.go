// Package session tracks the connected wallet and keeps the dex facade in
// step with it.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"dex-seasonal/pkg/dex"
	dexerr "dex-seasonal/pkg/errors"
	"dex-seasonal/pkg/wallet"
)

// Session is a snapshot of the wallet connection. Connected is true exactly
// when Address is set; the zero value is the disconnected session.
type Session struct {
	Address   string      `json:"address"`
	ChainID   int64       `json:"chain_id,omitempty"`
	Balance   string      `json:"balance"`
	Connected bool        `json:"connected"`
	Kind      wallet.Kind `json:"kind,omitempty"`
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// BackendFactory builds the chain backend for a freshly approved account.
type BackendFactory func(ctx context.Context, account wallet.Account) (dex.Backend, error)

type chainIDer interface {
	ChainID() int64
}

// Manager owns the session and installs a backend into the facade whenever
// a wallet connects.
type Manager struct {
	mu        sync.Mutex
	providers map[wallet.Kind]wallet.Provider
	facade    *dex.Facade
	factory   BackendFactory
	session   Session
	state     State
	// epoch increases on every connect attempt and disconnect, so a connect
	// that finishes after a newer transition can tell it lost.
	epoch uint64
	subs  map[chan Session]struct{}
	log   zerolog.Logger
}

func NewManager(facade *dex.Facade, factory BackendFactory, log zerolog.Logger, providers ...wallet.Provider) *Manager {
	m := &Manager{
		providers: make(map[wallet.Kind]wallet.Provider, len(providers)),
		facade:    facade,
		factory:   factory,
		subs:      make(map[chan Session]struct{}),
		log:       log.With().Str("component", "session").Logger(),
	}
	for _, p := range providers {
		if p != nil {
			m.providers[p.Kind()] = p
		}
	}
	return m
}

// Session returns the current snapshot.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Available reports whether a provider is registered for kind.
func (m *Manager) Available(kind wallet.Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.providers[kind]
	return ok
}

// Connect asks the provider of kind for an account, builds its backend and
// installs it. On failure the previous session stays in place.
func (m *Manager) Connect(ctx context.Context, kind wallet.Kind) (Session, error) {
	m.mu.Lock()
	p, ok := m.providers[kind]
	if !ok {
		m.mu.Unlock()
		return Session{}, dexerr.Newf(dexerr.CodeProviderMissing, "%s wallet is not available", kind)
	}
	if m.state == StateConnecting {
		m.mu.Unlock()
		return Session{}, dexerr.New(dexerr.CodeRequestPending, "a wallet connection is already in progress")
	}
	prev := m.state
	m.state = StateConnecting
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()

	log := m.log.With().Str("kind", kind.String()).Logger()
	log.Debug().Msg("connecting")

	next, backend, err := m.open(ctx, p)
	if err != nil {
		m.restore(epoch, prev)
		log.Warn().Err(err).Msg("connect failed")
		return Session{}, err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		backend.Close()
		return Session{}, dexerr.New(dexerr.CodeSuperseded, "wallet connection was superseded")
	}
	m.facade.Initialize(backend)
	m.session = next
	m.state = StateConnected
	m.publish()
	m.mu.Unlock()

	log.Info().Str("address", next.Address).Str("balance", next.Balance).Msg("wallet connected")
	return next, nil
}

func (m *Manager) open(ctx context.Context, p wallet.Provider) (Session, dex.Backend, error) {
	account, err := p.Connect(ctx)
	if err != nil {
		return Session{}, dex.Backend{}, classify(err, "failed to connect wallet")
	}
	if account == nil || account.Address() == "" {
		return Session{}, dex.Backend{}, dexerr.New(dexerr.CodeInternal, "wallet returned no account")
	}

	backend, err := m.factory(ctx, account)
	if err != nil {
		return Session{}, dex.Backend{}, classify(err, "failed to initialize DEX service")
	}
	if backend.IsZero() {
		return Session{}, dex.Backend{}, dexerr.New(dexerr.CodeInternal, "no DEX service for account")
	}

	next := Session{Address: account.Address(), Connected: true, Kind: account.Kind()}
	if c, ok := account.(chainIDer); ok {
		next.ChainID = c.ChainID()
	}

	balance, err := backend.NativeBalance(ctx)
	switch {
	case err == nil:
		next.Balance = balance
	case account.Kind() == wallet.KindSolana:
		// a fresh keypair has no account on chain yet
		m.log.Debug().Err(err).Msg("solana balance unavailable")
		next.Balance = "0"
	default:
		backend.Close()
		return Session{}, dex.Backend{}, classify(err, "failed to read balance")
	}
	return next, backend, nil
}

func (m *Manager) restore(epoch uint64, prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch {
		m.state = prev
	}
}

// Disconnect tears down the provider session and resets local state. The
// reset happens even when the provider fails to disconnect.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	kind := m.session.Kind
	p := m.providers[kind]
	m.mu.Unlock()

	var err error
	if d, ok := p.(wallet.Disconnecter); ok {
		if err = d.Disconnect(ctx); err != nil {
			m.log.Warn().Err(err).Str("kind", kind.String()).Msg("provider disconnect failed")
		}
	}
	m.reset()
	return err
}

func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.session = Session{}
	m.state = StateDisconnected
	m.facade.Reset()
	m.publish()
	m.log.Info().Msg("wallet disconnected")
}

// Subscribe returns a channel that always holds the most recent snapshot.
// Call the returned func to stop receiving.
func (m *Manager) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// publish must be called with m.mu held.
func (m *Manager) publish() {
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.session
	}
}

// Run consumes provider events until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	events := make(chan wallet.Event)
	var wg sync.WaitGroup

	m.mu.Lock()
	for _, p := range m.providers {
		src := p.Subscribe(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range src {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	m.mu.Unlock()

	go func() {
		wg.Wait()
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				<-ctx.Done()
				return
			}
			m.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies a single provider event. Events from a wallet kind
// other than the connected one are ignored.
func (m *Manager) HandleEvent(ctx context.Context, ev wallet.Event) {
	current := m.Session()
	if !current.Connected || current.Kind != ev.Kind {
		return
	}
	log := m.log.With().Str("event", ev.Type.String()).Logger()

	var err error
	switch ev.Type {
	case wallet.EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			err = m.Disconnect(ctx)
			break
		}
		_, err = m.Connect(ctx, ev.Kind)
	case wallet.EventChainChanged:
		log.Info().Int64("chain_id", ev.ChainID).Msg("chain changed, reconnecting")
		_, err = m.Connect(ctx, ev.Kind)
	case wallet.EventDisconnect:
		// the provider already dropped its session
		m.reset()
	}
	if err != nil {
		log.Warn().Err(err).Msg("event handling failed")
	}
}

func classify(err error, msg string) error {
	if _, ok := dexerr.As(err); ok {
		return err
	}
	return dexerr.Wrap(dexerr.CodeInternal, msg, err)
}
