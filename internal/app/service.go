package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-solo/internal/domain"
	"github.com/jaminalder/tictactoe-solo/internal/opponent"
)

// Errors exposed by the service layer.
var (
	ErrNotFound         = errors.New("game not found")
	ErrNotOwner         = errors.New("not the owner of this game")
	ErrComputerThinking = errors.New("computer is thinking")
)

// GameState is a snapshot of one session.
type GameState struct {
	ID       string
	Owner    string
	Board    domain.Board
	State    domain.State
	Next     domain.Cell
	Turns    int
	Outcome  domain.Result
	Moves    []domain.Move
	Thinking bool
	Created  time.Time
	Updated  time.Time
}

// Highlighted reports whether c lies on the winning route.
func (gs GameState) Highlighted(col, row int) bool {
	return gs.Outcome.Won && gs.Outcome.Route.Contains(domain.Coord{Col: col, Row: row})
}

type game struct {
	id       string
	owner    string
	session  *domain.Session
	thinking bool
	created  time.Time
	updated  time.Time
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// trySend delivers without blocking. It reports false when the buffer is
// full; a closed subscriber is skipped and counts as delivered.
func (s *subscriber) trySend(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- payload:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Service owns sessions, paces the computer's replies and fans out updates.
type Service struct {
	mu      sync.Mutex
	games   map[string]*game
	subs    map[string]map[*subscriber]struct{}
	render  func(GameState) []byte
	chooser domain.Chooser
	delay   time.Duration
	after   func(time.Duration, func())
	log     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the broadcast payload renderer.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithChooser replaces the computer player.
func WithChooser(c domain.Chooser) Option {
	return func(s *Service) {
		if c != nil {
			s.chooser = c
		}
	}
}

// WithThinkDelay sets the pause before the computer replies. Zero replies
// within the player's request.
func WithThinkDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithScheduler replaces time.AfterFunc for the delayed reply.
func WithScheduler(after func(time.Duration, func())) Option {
	return func(s *Service) {
		if after != nil {
			s.after = after
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// NewService creates a service. Without options the computer replies
// immediately and broadcasts carry no payload.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:   make(map[string]*game),
		subs:    make(map[string]map[*subscriber]struct{}),
		render:  func(GameState) []byte { return nil },
		chooser: opponent.New(uint64(time.Now().UnixNano())),
		after:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte, opts ...Option) *Service {
	return NewService(append(opts, WithRenderer(renderer))...)
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame registers a new session owned by owner. An empty owner lets
// anybody play.
func (s *Service) CreateGame(owner string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	log := s.log.With().Str("game", id).Logger()
	g := &game{
		id:    id,
		owner: owner,
		session: domain.NewSession(domain.WithListener(func(e domain.Event) {
			ev := log.Info().Stringer("from", e.From).Stringer("to", e.To)
			if e.To == domain.Finished {
				if e.Won {
					ev = ev.Stringer("winner", e.Winner).Interface("route", e.Route)
				} else {
					ev = ev.Bool("draw", true)
				}
			}
			ev.Msg("game state changed")
		})),
		created: now,
		updated: now,
	}
	s.games[id] = g
	log.Debug().Str("owner", owner).Msg("game created")
	cp := snapshot(g)
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := snapshot(g)
	return &cp, true
}

// Play places the player's mark and schedules the computer's reply.
func (s *Service) Play(id, playerID string, col, row int) (*GameState, error) {
	s.mu.Lock()
	g, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if g.owner != "" && g.owner != playerID {
		s.mu.Unlock()
		return nil, ErrNotOwner
	}
	if g.thinking {
		s.mu.Unlock()
		return nil, ErrComputerThinking
	}
	if _, err := g.session.PlaceMark(col, row, domain.Player); err != nil {
		s.mu.Unlock()
		s.log.Debug().Str("game", id).Int("col", col).Int("row", row).Err(err).Msg("player move rejected")
		return nil, err
	}
	g.updated = time.Now()
	s.log.Debug().Str("game", id).Int("col", col).Int("row", row).Msg("player move")

	if g.session.State() == domain.InProgress {
		if s.delay == 0 {
			s.computerTurnLocked(g)
		} else {
			g.thinking = true
			s.after(s.delay, func() { s.computerTurn(id) })
		}
	}

	cp := snapshot(g)
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	s.broadcast(id, subs, payload)
	return &cp, nil
}

// computerTurn runs the delayed reply scheduled by Play.
func (s *Service) computerTurn(id string) {
	s.mu.Lock()
	g, ok := s.games[id]
	if !ok || !g.thinking {
		s.mu.Unlock()
		return
	}
	g.thinking = false
	s.computerTurnLocked(g)
	cp := snapshot(g)
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	s.broadcast(id, subs, payload)
}

func (s *Service) computerTurnLocked(g *game) {
	before := g.session.Turns()
	if _, err := g.session.ApplyComputerTurn(s.chooser); err != nil {
		s.log.Error().Str("game", g.id).Err(err).Msg("computer move failed")
		return
	}
	g.updated = time.Now()
	moves := g.session.Moves()
	if len(moves) > before {
		m := moves[len(moves)-1]
		s.log.Debug().Str("game", g.id).Int("col", m.At.Col).Int("row", m.At.Row).Msg("computer move")
	}
}

// broadcast fans out payload; slow subscribers are closed and dropped.
func (s *Service) broadcast(id string, subs map[*subscriber]struct{}, payload []byte) {
	var toDrop []*subscriber
	for sub := range subs {
		if !sub.trySend(payload) {
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.log.Debug().Str("game", id).Int("dropped", len(toDrop)).Msg("dropped slow subscribers")
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; both are released when ctx ends.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}

func snapshot(g *game) GameState {
	return GameState{
		ID:       g.id,
		Owner:    g.owner,
		Board:    g.session.Board(),
		State:    g.session.State(),
		Next:     g.session.Next(),
		Turns:    g.session.Turns(),
		Outcome:  g.session.Outcome(),
		Moves:    g.session.Moves(),
		Thinking: g.thinking,
		Created:  g.created,
		Updated:  g.updated,
	}
}
