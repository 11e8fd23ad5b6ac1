// Package opponent picks the computer's moves with a single-ply greedy
// heuristic: win if possible, otherwise block, otherwise play at random.
package opponent

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

// TieBreak decides which route wins when several can be completed.
// FirstRoute is the original game's behaviour and the default.
type TieBreak uint8

const (
	// FirstRoute takes the first qualifying route in table order.
	FirstRoute TieBreak = iota
	// LastRoute keeps scanning and takes the last qualifying route.
	LastRoute
)

func (t TieBreak) String() string {
	if t == LastRoute {
		return "last"
	}
	return "first"
}

// ParseTieBreak accepts "first" or "last".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstRoute, nil
	case "last":
		return LastRoute, nil
	}
	return FirstRoute, fmt.Errorf("unknown tie break %q", s)
}

// Tier names the rule that produced a move.
type Tier uint8

const (
	TierAttack Tier = iota
	TierBlock
	TierRandom
)

func (t Tier) String() string {
	switch t {
	case TierAttack:
		return "attack"
	case TierBlock:
		return "block"
	default:
		return "random"
	}
}

// ErrNoEmptyCell means the heuristic was asked to move on a full board.
var ErrNoEmptyCell = fmt.Errorf("%w: no empty cell", domain.ErrInvariantViolation)

// Heuristic implements domain.Chooser. It is not safe for concurrent use.
type Heuristic struct {
	attacking bool
	defensive bool
	tieBreak  TieBreak
	rng       *rand.Rand
	log       zerolog.Logger
}

// Option configures a Heuristic.
type Option func(*Heuristic)

// WithAttacking toggles the win-now tier.
func WithAttacking(on bool) Option { return func(h *Heuristic) { h.attacking = on } }

// WithDefensive toggles the block tier.
func WithDefensive(on bool) Option { return func(h *Heuristic) { h.defensive = on } }

// WithTieBreak picks the route used when several qualify.
func WithTieBreak(t TieBreak) Option { return func(h *Heuristic) { h.tieBreak = t } }

// WithLogger sets the decision logger.
func WithLogger(l zerolog.Logger) Option { return func(h *Heuristic) { h.log = l } }

// New returns a heuristic with both tiers on, seeded with seed.
func New(seed uint64, opts ...Option) *Heuristic {
	h := &Heuristic{
		attacking: true,
		defensive: true,
		rng:       rand.New(rand.NewSource(seed)),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ChooseMove returns the cell the computer should play.
func (h *Heuristic) ChooseMove(b domain.Board, routes domain.RouteTable) (domain.Coord, error) {
	at, tier, err := h.Decide(&b, routes)
	if err != nil {
		return domain.Coord{}, err
	}
	h.log.Debug().Str("tier", tier.String()).Int("col", at.Col).Int("row", at.Row).Msg("computer move chosen")
	return at, nil
}

// Decide is ChooseMove that also reports which tier fired.
func (h *Heuristic) Decide(b *domain.Board, routes domain.RouteTable) (domain.Coord, Tier, error) {
	if h.attacking {
		if at, ok := h.completion(b, routes, domain.Computer, domain.Player); ok {
			return at, TierAttack, nil
		}
	}
	if h.defensive {
		if at, ok := h.completion(b, routes, domain.Player, domain.Computer); ok {
			return at, TierBlock, nil
		}
	}
	empties := b.Empties()
	if len(empties) == 0 {
		return domain.Coord{}, TierRandom, ErrNoEmptyCell
	}
	return empties[h.rng.Intn(len(empties))], TierRandom, nil
}

// completion finds a route where self is one mark short of owning it.
func (h *Heuristic) completion(b *domain.Board, routes domain.RouteTable, self, other domain.Cell) (domain.Coord, bool) {
	progress := routes.Progress(b, self, other)
	var pick domain.Coord
	found := false
	for i, r := range routes {
		if progress[i] != domain.Size-1 {
			continue
		}
		empties := 0
		var cell domain.Coord
		for _, c := range r {
			if b.At(c) == domain.Empty {
				empties++
				cell = c
			}
		}
		if empties != 1 {
			continue
		}
		pick, found = cell, true
		if h.tieBreak == FirstRoute {
			break
		}
	}
	return pick, found
}
