package domain

import (
	"errors"
	"fmt"
)

// State is the lifecycle of a session.
type State uint8

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return "not_started"
	}
}

// Errors returned by session operations.
var (
	ErrGameAlreadyFinished = errors.New("game already finished")
	ErrOutOfTurn           = errors.New("not this actor's turn")
	ErrInvariantViolation  = errors.New("invariant violation")
)

// Move is one accepted mark.
type Move struct {
	Actor Cell
	At    Coord
}

// Result describes a session after an accepted move.
type Result struct {
	State  State
	Winner Cell
	Route  Route
	Won    bool
	Draw   bool
}

// Event is emitted on NotStarted->InProgress and on ->Finished.
type Event struct {
	From   State
	To     State
	Winner Cell
	Route  Route
	Won    bool
	Draw   bool
}

// Listener receives session events synchronously.
type Listener func(Event)

// Chooser picks the Computer's next cell.
type Chooser interface {
	ChooseMove(b Board, routes RouteTable) (Coord, error)
}

// Session owns the board and the rules of one game against the computer.
// It is not safe for concurrent use.
type Session struct {
	board     Board
	routes    RouteTable
	state     State
	turns     int
	next      Cell
	winner    Cell
	route     Route
	won       bool
	moves     []Move
	listeners []Listener
}

// Option configures a Session.
type Option func(*Session)

// WithRoutes replaces the shared route table.
func WithRoutes(t RouteTable) Option {
	return func(s *Session) {
		if len(t) > 0 {
			s.routes = t
		}
	}
}

// WithListener registers l for state transitions.
func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// NewSession returns a session with Player to move.
func NewSession(opts ...Option) *Session {
	s := &Session{routes: Routes, next: Player}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replay rebuilds a session from a recorded move list.
func Replay(moves []Move, opts ...Option) (*Session, error) {
	s := NewSession(opts...)
	for i, m := range moves {
		if _, err := s.PlaceMark(m.At.Col, m.At.Row, m.Actor); err != nil {
			return s, fmt.Errorf("replay move %d %s %s: %w", i, m.Actor, m.At, err)
		}
	}
	return s, nil
}

// Start moves NotStarted to InProgress. Later calls do nothing.
func (s *Session) Start() {
	if s.state != NotStarted {
		return
	}
	s.state = InProgress
	s.emit(Event{From: NotStarted, To: InProgress})
}

// PlaceMark validates and applies a mark for actor at (col,row).
// On error the session is unchanged.
func (s *Session) PlaceMark(col, row int, actor Cell) (Result, error) {
	if s.state == Finished {
		return s.result(), ErrGameAlreadyFinished
	}
	if !actor.IsActor() {
		return s.result(), ErrInvalidMark
	}
	if actor != s.next {
		return s.result(), ErrOutOfTurn
	}
	if err := s.board.Set(col, row, actor); err != nil {
		return s.result(), err
	}

	s.Start()
	s.turns++
	s.moves = append(s.moves, Move{Actor: actor, At: Coord{Col: col, Row: row}})

	// No line can be complete before 2N-1 marks.
	if s.turns >= 2*Size-1 {
		if w, r, ok := s.routes.Winner(&s.board); ok {
			s.finish(w, r, true)
			return s.result(), nil
		}
	}
	if s.turns == Size*Size {
		s.finish(Empty, Route{}, false)
		return s.result(), nil
	}

	s.next = actor.Opponent()
	return s.result(), nil
}

// ApplyComputerTurn asks c for a cell and places the Computer's mark there.
func (s *Session) ApplyComputerTurn(c Chooser) (Result, error) {
	if s.state == Finished {
		return s.result(), ErrGameAlreadyFinished
	}
	if s.state != InProgress || s.next != Computer {
		return s.result(), ErrOutOfTurn
	}
	at, err := c.ChooseMove(s.board, s.routes)
	if err != nil {
		return s.result(), err
	}
	res, err := s.PlaceMark(at.Col, at.Row, Computer)
	if err != nil {
		// A chooser picking an illegal cell is a bug in the chooser.
		return res, fmt.Errorf("%w: computer chose %s: %v", ErrInvariantViolation, at, err)
	}
	return res, nil
}

func (s *Session) finish(winner Cell, r Route, won bool) {
	from := s.state
	s.state = Finished
	s.winner, s.route, s.won = winner, r, won
	s.next = Empty
	s.emit(Event{From: from, To: Finished, Winner: winner, Route: r, Won: won, Draw: !won})
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		l(e)
	}
}

func (s *Session) result() Result {
	return Result{
		State:  s.state,
		Winner: s.winner,
		Route:  s.route,
		Won:    s.won,
		Draw:   s.state == Finished && !s.won,
	}
}

// Board returns a copy of the board.
func (s *Session) Board() Board { return s.board }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Turns returns the number of marks placed so far.
func (s *Session) Turns() int { return s.turns }

// Next returns the actor to move, Empty once finished.
func (s *Session) Next() Cell { return s.next }

// Outcome returns the result of the latest accepted move.
func (s *Session) Outcome() Result { return s.result() }

// Routes returns the table used for win detection.
func (s *Session) Routes() RouteTable { return s.routes }

// Moves returns a copy of the accepted moves.
func (s *Session) Moves() []Move {
	out := make([]Move, len(s.moves))
	copy(out, s.moves)
	return out
}
