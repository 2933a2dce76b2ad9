package staging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrParseFailed     = errors.New("parse failed")
)

// SessionCache stores serialized sessions outside the process.
type SessionCache interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Repository is what the manager needs from the persistence store.
type Repository interface {
	store.Directory
	BatchSaver
}

// Manager owns the live staging sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps  Deps
	repo  Repository
	cache SessionCache // optional
	log   zerolog.Logger
	now   func() time.Time
}

func NewManager(deps Deps, repo Repository, cache SessionCache, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		repo:     repo,
		cache:    cache,
		log:      logger,
		now:      time.Now,
	}
}

// Create parses text into a new session and matches it against the active
// customers. A failed parse is returned with ErrParseFailed and no session.
func (m *Manager) Create(ctx context.Context, text string) (View, model.ParseResult, error) {
	start := time.Now()
	s := NewSession(m.deps, m.now())
	res, err := s.Load(ctx, text)
	if err != nil {
		return View{}, res, err
	}
	if !res.Success {
		return View{}, res, fmt.Errorf("%w: %s", ErrParseFailed, res.Error)
	}

	customers, err := m.repo.ListActiveCustomers(ctx)
	if err != nil {
		return View{}, res, fmt.Errorf("list customers: %w", err)
	}
	if err := s.Match(customers); err != nil {
		return View{}, res, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.persist(ctx, s)

	c := s.Counters()
	m.log.Info().
		Str("session", s.ID()).
		Int("rows", c.Total).
		Int("verified", c.Verified).
		Int("similar", c.Similar).
		Int("new", c.New).
		Int("warnings", c.Warnings).
		Dur("took", time.Since(start)).
		Msg("session created")
	return s.View(), res, nil
}

// Get returns the live session, restoring it from the cache on a miss.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	if m.cache == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	data, err := m.cache.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn().Err(err).Str("session", id).Msg("session cache load failed")
		}
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s, err = Restore(m.deps, data)
	if err != nil {
		m.log.Warn().Err(err).Str("session", id).Msg("session snapshot unreadable")
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	m.mu.Lock()
	if cur, ok := m.sessions[id]; ok {
		s = cur
	} else {
		m.sessions[id] = s
	}
	m.mu.Unlock()
	m.log.Debug().Str("session", id).Msg("session restored from cache")
	return s, nil
}

func (m *Manager) EditRow(ctx context.Context, id string, pos int, name, phone string) (Row, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	row, err := s.EditRow(pos, name, phone)
	if err != nil {
		return Row{}, err
	}
	m.persist(ctx, s)
	return row, nil
}

func (m *Manager) LinkRow(ctx context.Context, id string, pos int, customerID string) (Row, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	row, err := s.LinkRow(pos, customerID)
	if err != nil {
		return Row{}, err
	}
	m.persist(ctx, s)
	m.log.Info().Str("session", id).Int("row", pos).Str("customer", customerID).Msg("row linked")
	return row, nil
}

func (m *Manager) Review(ctx context.Context, id string) (View, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.MarkReviewed(); err != nil {
		return View{}, err
	}
	m.persist(ctx, s)
	return s.View(), nil
}

// Commit saves the batch and drops the session. A failed save keeps it.
func (m *Manager) Commit(ctx context.Context, id string) (model.Batch, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return model.Batch{}, err
	}
	b, err := s.Commit(ctx, m.repo, m.now())
	if err != nil {
		m.log.Error().Err(err).Str("session", id).Msg("commit failed")
		return model.Batch{}, err
	}
	m.forget(ctx, id)
	m.log.Info().Str("session", id).Int("shipments", len(b.Shipments)).Msg("batch committed")
	return b, nil
}

func (m *Manager) Abandon(ctx context.Context, id string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Abandon(); err != nil {
		return err
	}
	m.forget(ctx, id)
	m.log.Info().Str("session", id).Msg("session abandoned")
	return nil
}

// Len is the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) persist(ctx context.Context, s *Session) {
	if m.cache == nil {
		return
	}
	data, err := s.Snapshot()
	if err != nil {
		m.log.Warn().Err(err).Str("session", s.ID()).Msg("session snapshot failed")
		return
	}
	if err := m.cache.Save(ctx, s.ID(), data); err != nil {
		m.log.Warn().Err(err).Str("session", s.ID()).Msg("session cache save failed")
	}
}

func (m *Manager) forget(ctx context.Context, id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, id); err != nil {
		m.log.Warn().Err(err).Str("session", id).Msg("session cache delete failed")
	}
}
