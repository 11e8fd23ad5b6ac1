// Package tui plays a session in the terminal.
package tui

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

// Model is the terminal view state around one session.
type Model struct {
	sess     *domain.Session
	chooser  domain.Chooser
	cursor   domain.Coord
	thinking bool
	message  string
	log      zerolog.Logger
}

// NewModel wraps sess with the cursor in the centre cell.
func NewModel(sess *domain.Session, chooser domain.Chooser, log zerolog.Logger) *Model {
	return &Model{sess: sess, chooser: chooser, cursor: domain.Coord{Col: 1, Row: 1}, log: log}
}

// MoveCursor shifts the cursor, clamped to the board.
func (m *Model) MoveCursor(dc, dr int) {
	m.cursor.Col = clamp(m.cursor.Col+dc)
	m.cursor.Row = clamp(m.cursor.Row+dr)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v >= domain.Size {
		return domain.Size - 1
	}
	return v
}

// Place puts the player's mark under the cursor. It reports whether the
// computer has to reply.
func (m *Model) Place() bool {
	if m.thinking {
		return false
	}
	_, err := m.sess.PlaceMark(m.cursor.Col, m.cursor.Row, domain.Player)
	switch {
	case err == nil:
		m.message = ""
	case errors.Is(err, domain.ErrCellOccupied):
		m.message = "Cell is occupied"
		return false
	case errors.Is(err, domain.ErrGameAlreadyFinished):
		m.message = "Game is over, press q to quit"
		return false
	default:
		m.message = err.Error()
		return false
	}
	m.log.Debug().Int("col", m.cursor.Col).Int("row", m.cursor.Row).Msg("player move")
	if m.sess.State() == domain.InProgress {
		m.thinking = true
		return true
	}
	return false
}

// ComputerTurn applies the computer's reply scheduled by Place.
func (m *Model) ComputerTurn() error {
	if !m.thinking {
		return nil
	}
	m.thinking = false
	if _, err := m.sess.ApplyComputerTurn(m.chooser); err != nil {
		m.log.Error().Err(err).Msg("computer move failed")
		return err
	}
	return nil
}

// Thinking reports whether a computer reply is pending.
func (m *Model) Thinking() bool { return m.thinking }

func (m *Model) Cursor() domain.Coord { return m.cursor }

// Highlighted reports whether (col,row) is on the winning route.
func (m *Model) Highlighted(col, row int) bool {
	res := m.sess.Outcome()
	return res.Won && res.Route.Contains(domain.Coord{Col: col, Row: row})
}

// Status is the line shown under the grid.
func (m *Model) Status() string {
	res := m.sess.Outcome()
	switch {
	case res.State == domain.Finished && res.Won:
		return res.Winner.String() + " wins"
	case res.State == domain.Finished:
		return "Draw"
	case m.thinking:
		return "Computer is thinking..."
	case m.message != "":
		return m.message
	default:
		return "Your move (X)"
	}
}

// Lines renders the grid; the cursor cell is bracketed.
func (m *Model) Lines() []string {
	b := m.sess.Board()
	out := make([]string, 0, 2*domain.Size+1)
	for row := 0; row < domain.Size; row++ {
		cells := make([]string, domain.Size)
		for col := 0; col < domain.Size; col++ {
			s := b.Get(col, row).Symbol()
			if s == "" {
				s = " "
			}
			if m.cursor == (domain.Coord{Col: col, Row: row}) {
				cells[col] = "[" + s + "]"
			} else {
				cells[col] = " " + s + " "
			}
		}
		out = append(out, strings.Join(cells, "|"))
		if row < domain.Size-1 {
			out = append(out, strings.Repeat("---+", domain.Size-1)+"---")
		}
	}
	out = append(out, "", m.Status(), "arrows/hjkl move, enter/space play, q quit")
	return out
}
