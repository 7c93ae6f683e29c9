package viewer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"profile-viewer/catalog"
	"profile-viewer/models"
	"profile-viewer/telemetry"

	"go.uber.org/zap"
)

const (
	saveTimeout    = 5 * time.Second
	settleAttempts = 3
	sessionStripes = 64
)

var (
	errClosed        = errors.New("viewer: manager closed")
	settleRetryDelay = 100 * time.Millisecond
)

type StateStore interface {
	Load(ctx context.Context, sessionID string) (models.QueryState, bool, error)
	Save(ctx context.Context, sessionID string, state models.QueryState) error
}

type inflight struct {
	generation uint64
	cancel     context.CancelFunc
}

// Manager drives the search box of every session through the
// idle/loading/result/error states. A new submission supersedes any query
// still running for the same session.
type Manager struct {
	resolver *Resolver
	store    StateStore

	// sessions serialises store round trips per session.
	sessions [sessionStripes]sync.Mutex

	mu       sync.Mutex
	running  map[string]inflight
	closed   bool
	wg       sync.WaitGroup
	baseCtx  context.Context
	stopBase context.CancelFunc
}

func NewManager(resolver *Resolver, store StateStore) *Manager {
	baseCtx, stop := context.WithCancel(context.Background())
	return &Manager{
		resolver: resolver,
		store:    store,
		running:  make(map[string]inflight),
		baseCtx:  baseCtx,
		stopBase: stop,
	}
}

// Submit returns at once; the lookup settles in the background.
func (m *Manager) Submit(ctx context.Context, sessionID, raw string) (models.QueryState, error) {
	if m.isClosed() {
		return models.QueryState{}, errClosed
	}

	unlock := m.lockSession(sessionID)
	defer unlock()

	state, err := m.begin(ctx, sessionID, raw)
	if err != nil || !state.Loading {
		return state, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return state, errClosed
	}
	queryCtx, cancel := context.WithCancel(m.baseCtx)
	m.running[sessionID] = inflight{generation: state.Generation, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	go func(generation uint64) {
		defer m.wg.Done()
		defer cancel()
		outcome := m.resolver.Resolve(queryCtx, raw)
		if err := m.complete(sessionID, generation, outcome); err != nil {
			telemetry.Logger(queryCtx).Error("failed to settle query",
				zap.String("session_id", sessionID),
				zap.Uint64("generation", generation),
				zap.Error(err),
			)
		}
	}(state.Generation)

	return state, nil
}

// Search behaves like Submit but waits for the query to settle. Cancelling
// ctx abandons the wait and clears loading.
func (m *Manager) Search(ctx context.Context, sessionID, raw string) (models.QueryState, error) {
	if m.isClosed() {
		return models.QueryState{}, errClosed
	}

	unlock := m.lockSession(sessionID)
	state, err := m.begin(ctx, sessionID, raw)
	if err != nil || !state.Loading {
		unlock()
		return state, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unlock()
		return state, errClosed
	}
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.running[sessionID] = inflight{generation: state.Generation, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()
	unlock()
	defer m.wg.Done()

	outcome := m.resolver.Resolve(queryCtx, raw)
	if err := m.complete(sessionID, state.Generation, outcome); err != nil {
		return models.QueryState{}, err
	}
	return m.State(context.WithoutCancel(ctx), sessionID)
}

func (m *Manager) Fill(ctx context.Context, sessionID, key string) (models.QueryState, error) {
	if !catalog.IsKey(key) {
		return models.QueryState{}, fmt.Errorf("%w: %q", ErrUnknownDemoKey, key)
	}

	unlock := m.lockSession(sessionID)
	defer unlock()

	state, _, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return models.QueryState{}, fmt.Errorf("load state: %w", err)
	}
	state.Input = key
	state.UpdatedAt = now().UTC()
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return models.QueryState{}, fmt.Errorf("save state: %w", err)
	}
	return state, nil
}

// State settles orphaned loading states on read.
func (m *Manager) State(ctx context.Context, sessionID string) (models.QueryState, error) {
	unlock := m.lockSession(sessionID)
	defer unlock()

	state, _, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return models.QueryState{}, fmt.Errorf("load state: %w", err)
	}
	if !m.orphaned(sessionID, state) {
		return state, nil
	}

	settled := settle(state, m.resolver.lookup(state.Input))
	if err := m.store.Save(ctx, sessionID, settled); err != nil {
		telemetry.Logger(ctx).Warn("failed to persist settled orphaned query",
			zap.String("session_id", sessionID),
			zap.Uint64("generation", state.Generation),
			zap.Error(err),
		)
	}
	return settled, nil
}

func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.stopBase()
	m.wg.Wait()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) lockSession(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &m.sessions[h.Sum32()%sessionStripes]
	mu.Lock()
	return mu.Unlock
}

func (m *Manager) settleWindow() time.Duration {
	return m.resolver.Latency() + settleAttempts*(saveTimeout+settleRetryDelay)
}

// orphaned: loading, not owned by a query in this process, and past the
// settle window.
func (m *Manager) orphaned(sessionID string, state models.QueryState) bool {
	if !state.Loading {
		return false
	}
	m.mu.Lock()
	cur, ok := m.running[sessionID]
	m.mu.Unlock()
	if ok && cur.generation == state.Generation {
		return false
	}
	return now().Sub(state.LoadingSince) > m.settleWindow()
}

// begin must be called with the session lock held.
func (m *Manager) begin(ctx context.Context, sessionID, raw string) (models.QueryState, error) {
	state, _, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return models.QueryState{}, fmt.Errorf("load state: %w", err)
	}

	m.mu.Lock()
	if prev, ok := m.running[sessionID]; ok {
		prev.cancel()
		delete(m.running, sessionID)
	}
	m.mu.Unlock()

	ts := now().UTC()
	state.Input = raw
	state.Generation++
	state.Record = nil
	state.UpdatedAt = ts
	if strings.TrimSpace(raw) == "" {
		state.Loading = false
		state.LoadingSince = time.Time{}
		state.Error = Message(ErrEmptyInput)
	} else {
		state.Loading = true
		state.LoadingSince = ts
		state.Error = ""
	}

	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return models.QueryState{}, fmt.Errorf("save state: %w", err)
	}
	return state, nil
}

// complete writes the outcome of query generation unless a newer query
// has taken over the session.
func (m *Manager) complete(sessionID string, generation uint64, outcome Outcome) error {
	unlock := m.lockSession(sessionID)
	defer unlock()

	m.mu.Lock()
	if cur, ok := m.running[sessionID]; ok && cur.generation == generation {
		delete(m.running, sessionID)
	}
	m.mu.Unlock()

	var err error
	for attempt := 0; attempt < settleAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(settleRetryDelay)
		}
		if err = m.settleOnce(sessionID, generation, outcome); err == nil {
			return nil
		}
	}
	return err
}

func (m *Manager) settleOnce(sessionID string, generation uint64, outcome Outcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	state, _, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if state.Generation != generation {
		return nil
	}

	if err := m.store.Save(ctx, sessionID, settle(state, outcome)); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func settle(state models.QueryState, outcome Outcome) models.QueryState {
	state.Loading = false
	state.LoadingSince = time.Time{}
	state.Record = nil
	state.Error = ""
	switch {
	case outcome.Err == nil:
		state.Record = outcome.Record
	case errors.Is(outcome.Err, context.Canceled), errors.Is(outcome.Err, context.DeadlineExceeded):
		// abandoned without a newer query: back to idle
	default:
		state.Error = Message(outcome.Err)
	}
	state.UpdatedAt = now().UTC()
	return state
}
