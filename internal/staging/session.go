// Package staging holds reconciliation batches between paste and commit.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"cargo-recon/internal/pricing"
	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/reconcile/service"
)

type State string

const (
	StateEmpty     State = "EMPTY"
	StateParsed    State = "PARSED"
	StateReviewed  State = "REVIEWED"
	StateCommitted State = "COMMITTED"
	StateAbandoned State = "ABANDONED"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrSessionClosed     = errors.New("session is closed")
	ErrRowNotFound       = errors.New("row not found")
	ErrCustomerNotFound  = errors.New("customer not in session directory")
	ErrUnmatchedRows     = errors.New("rows without match result")
)

// BatchSaver is the write side of the persistence store used on commit.
type BatchSaver interface {
	SaveBatch(ctx context.Context, b model.Batch) error
}

// Deps are the collaborators shared by every session of a manager.
type Deps struct {
	Engine        *service.Engine
	Resolver      *pricing.RateResolver
	UnitPrice     float64
	VolumeDivisor float64
	Clock         func() time.Time // nil means time.Now
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// Row is one parsed item with its current match.
type Row struct {
	Item   model.ParsedItem   `json:"item"`
	Match  *model.MatchResult `json:"match,omitempty"`
	Edited bool               `json:"edited,omitempty"`
}

// View is the read model handed to the presentation layer.
type View struct {
	ID         string                 `json:"id"`
	State      State                  `json:"state"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	Format     model.Format           `json:"format,omitempty"`
	HasHeader  bool                   `json:"hasHeader"`
	Headers    []string               `json:"headers,omitempty"`
	Rows       []Row                  `json:"rows"`
	Warnings   []model.Warning        `json:"warnings"`
	Duplicates []model.DuplicateGroup `json:"duplicates"`
	Counters   model.Counters         `json:"counters"`
}

// Session is one staging batch. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	state     State
	createdAt time.Time
	updatedAt time.Time
	source    string
	result    model.ParseResult
	rows      []Row
	dups      []model.DuplicateGroup
	customers []model.Customer
	matched   bool
	counters  model.Counters

	deps Deps
}

func NewSession(deps Deps, now time.Time) *Session {
	return &Session{
		id:        ulid.Make().String(),
		state:     StateEmpty,
		createdAt: now,
		updatedAt: now,
		deps:      deps,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdatedAt is the time of the last state or row change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) Counters() model.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Load parses text. An unsuccessful parse leaves the session EMPTY; a
// cancelled parse returns ctx's error and leaves it EMPTY as well.
func (s *Session) Load(ctx context.Context, text string) (model.ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateEmpty); err != nil {
		return model.ParseResult{}, err
	}

	res, dups, err := s.deps.Engine.Parse(ctx, text)
	if err != nil {
		return res, err
	}
	if !res.Success {
		return res, nil
	}

	s.source = text
	s.result = res
	s.dups = dups
	s.rows = make([]Row, len(res.Items))
	for i, it := range res.Items {
		s.rows[i] = Row{Item: it}
	}
	s.counters = model.Counters{Total: len(s.rows), Warnings: len(res.Warnings)}
	for _, r := range s.rows {
		if !service.UsablePhone(service.NormalizePhone(r.Item.Phone)) {
			s.counters.Untracked++
		}
	}
	s.state = StateParsed
	s.touch()
	return res, nil
}

// Match matches every row against customers, which the session keeps as its
// directory snapshot for later edits and manual links.
func (s *Session) Match(customers []model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateParsed); err != nil {
		return err
	}
	s.customers = append([]model.Customer(nil), customers...)
	for i := range s.rows {
		m := service.Match(s.rows[i].Item, s.customers)
		s.setMatch(i, &m)
	}
	s.matched = true
	s.touch()
	return nil
}

// EditRow corrects a row's name and/or phone; empty arguments keep the
// current value. A name carrying a parenthetical replaces the region. The row
// is re-matched and duplicate groups are rebuilt. A REVIEWED session goes
// back to PARSED.
func (s *Session) EditRow(pos int, name, phone string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateParsed, StateReviewed); err != nil {
		return Row{}, err
	}
	if pos < 0 || pos >= len(s.rows) {
		return Row{}, fmt.Errorf("%w: %d", ErrRowNotFound, pos)
	}

	r := &s.rows[pos]
	wasUntracked := !service.UsablePhone(service.NormalizePhone(r.Item.Phone))
	if name = strings.TrimSpace(name); name != "" {
		n, region := service.SplitRegion(name)
		r.Item.Name = n
		if region != "" {
			r.Item.Region = region
		}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		r.Item.Phone = phone
	}
	r.Edited = true

	isUntracked := !service.UsablePhone(service.NormalizePhone(r.Item.Phone))
	switch {
	case wasUntracked && !isUntracked:
		s.counters.Untracked--
	case !wasUntracked && isUntracked:
		s.counters.Untracked++
	}

	if s.matched {
		m := service.Match(r.Item, s.customers)
		s.setMatch(pos, &m)
	}
	s.dups = service.FindDuplicates(s.items())
	s.state = StateParsed
	s.touch()
	return s.rows[pos], nil
}

// LinkRow assigns a row to a customer chosen by the user.
func (s *Session) LinkRow(pos int, customerID string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateParsed, StateReviewed); err != nil {
		return Row{}, err
	}
	if pos < 0 || pos >= len(s.rows) {
		return Row{}, fmt.Errorf("%w: %d", ErrRowNotFound, pos)
	}
	var cust *model.Customer
	for i := range s.customers {
		if s.customers[i].ID == customerID {
			c := s.customers[i]
			cust = &c
			break
		}
	}
	if cust == nil {
		return Row{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}

	m := &model.MatchResult{
		Status:     model.StatusVerified,
		Customer:   cust,
		Candidates: []model.Candidate{},
		Confidence: 1,
		Factors:    []model.Factor{model.FactorManualLink},
	}
	if prev := s.rows[pos].Match; prev != nil {
		m.Candidates = prev.Candidates
	}
	s.setMatch(pos, m)
	s.rows[pos].Edited = true
	s.state = StateParsed
	s.touch()
	return s.rows[pos], nil
}

// MarkReviewed moves PARSED to REVIEWED once every row has a match result.
func (s *Session) MarkReviewed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateParsed); err != nil {
		return err
	}
	for _, r := range s.rows {
		if r.Match == nil {
			return fmt.Errorf("%w: row %d", ErrUnmatchedRows, r.Item.RowIndex)
		}
	}
	s.state = StateReviewed
	s.touch()
	return nil
}

// Commit hands the batch to saver. On failure the session stays REVIEWED and
// the commit may be retried.
func (s *Session) Commit(ctx context.Context, saver BatchSaver, now time.Time) (model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateReviewed); err != nil {
		return model.Batch{}, err
	}

	b := s.buildBatch(now)
	if err := saver.SaveBatch(ctx, b); err != nil {
		return model.Batch{}, fmt.Errorf("commit batch %s: %w", s.id, err)
	}
	s.state = StateCommitted
	s.updatedAt = now
	return b, nil
}

// Abandon discards the batch. Committed sessions cannot be abandoned.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expect(StateEmpty, StateParsed, StateReviewed); err != nil {
		return err
	}
	s.state = StateAbandoned
	s.touch()
	return nil
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	warnings := s.result.Warnings
	if warnings == nil {
		warnings = []model.Warning{}
	}
	dups := s.dups
	if dups == nil {
		dups = []model.DuplicateGroup{}
	}
	return View{
		ID:         s.id,
		State:      s.state,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
		Format:     s.result.Format,
		HasHeader:  s.result.HasHeader,
		Headers:    s.result.Headers,
		Rows:       rows,
		Warnings:   warnings,
		Duplicates: dups,
		Counters:   s.counters,
	}
}

func (s *Session) buildBatch(now time.Time) model.Batch {
	b := model.Batch{
		ID:          s.id,
		SourceText:  s.source,
		Counters:    s.counters,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
		CommittedAt: now,
		Shipments:   make([]model.Shipment, 0, len(s.rows)),
	}
	for _, r := range s.rows {
		rec := model.ShipmentRecord{
			ID:         uuid.NewString(),
			BatchID:    s.id,
			RowIndex:   r.Item.RowIndex,
			Status:     r.Match.Status,
			Confidence: r.Match.Confidence,
			Item:       r.Item,
			CreatedAt:  now,
		}
		if r.Match.Customer != nil {
			rec.Customer = snapshotCustomer(*r.Match.Customer)
		}
		rate, reason := s.deps.Resolver.Resolve(rec.Customer)
		layer := pricing.NewLayer(s.volume(r.Item), s.deps.UnitPrice, rate, reason)
		b.Shipments = append(b.Shipments, model.Shipment{Record: rec, Pricing: layer})
	}
	return b
}

// volume is weight in volume units, or the parcel count when no weight was given.
func (s *Session) volume(it model.ParsedItem) float64 {
	if it.Weight > 0 && s.deps.VolumeDivisor > 0 {
		return it.Weight / s.deps.VolumeDivisor
	}
	return float64(it.Quantity)
}

func snapshotCustomer(c model.Customer) *model.Customer {
	if c.DiscountPercent != nil {
		p := *c.DiscountPercent
		c.DiscountPercent = &p
	}
	return &c
}

// touch records a modification. Timestamps never move backwards.
func (s *Session) touch() {
	if now := s.deps.now(); now.After(s.updatedAt) {
		s.updatedAt = now
	}
}

func (s *Session) setMatch(pos int, m *model.MatchResult) {
	if old := s.rows[pos].Match; old != nil {
		s.bump(old.Status, -1)
	}
	s.rows[pos].Match = m
	s.bump(m.Status, 1)
}

func (s *Session) bump(st model.MatchStatus, d int) {
	switch st {
	case model.StatusVerified:
		s.counters.Verified += d
	case model.StatusSimilar:
		s.counters.Similar += d
	case model.StatusNewCustomer:
		s.counters.New += d
	}
}

func (s *Session) items() []model.ParsedItem {
	out := make([]model.ParsedItem, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Item
	}
	return out
}

func (s *Session) expect(allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	if s.state == StateCommitted || s.state == StateAbandoned {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.state)
	}
	return fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.state)
}

type snapshot struct {
	View
	Source    string            `json:"source"`
	Result    model.ParseResult `json:"result"`
	Customers []model.Customer  `json:"customers"`
	Matched   bool              `json:"matched"`
}

// Snapshot serializes the session for a session cache.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(snapshot{
		View:      s.view(),
		Source:    s.source,
		Result:    s.result,
		Customers: s.customers,
		Matched:   s.matched,
	})
}

// Restore rebuilds a session from Snapshot output.
func Restore(deps Deps, data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if snap.ID == "" {
		return nil, errors.New("decode session: missing id")
	}
	return &Session{
		id:        snap.ID,
		state:     snap.State,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
		source:    snap.Source,
		result:    snap.Result,
		rows:      snap.Rows,
		dups:      snap.Duplicates,
		customers: snap.Customers,
		matched:   snap.Matched,
		counters:  snap.Counters,
		deps:      deps,
	}, nil
}
