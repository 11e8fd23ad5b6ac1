package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the board edge length.
const Size = 3

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	Player
	Computer
)

func (c Cell) String() string {
	switch c {
	case Player:
		return "Player"
	case Computer:
		return "Computer"
	default:
		return "Empty"
	}
}

// Symbol is the mark drawn for the cell.
func (c Cell) Symbol() string {
	switch c {
	case Player:
		return "X"
	case Computer:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other actor. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Player:
		return Computer
	case Computer:
		return Player
	default:
		return Empty
	}
}

// IsActor reports whether c is a mark an actor can place.
func (c Cell) IsActor() bool { return c == Player || c == Computer }

// Coord addresses a cell by column and row.
type Coord struct {
	Col int
	Row int
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// Errors returned by board operations.
var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrOutOfRange   = fmt.Errorf("%w: out of range", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
	ErrInvalidMark  = errors.New("invalid mark")
)

// Board is a fixed Size x Size grid indexed [col][row].
type Board [Size][Size]Cell

// InRange reports whether (col,row) lies on the board.
func InRange(col, row int) bool {
	return col >= 0 && col < Size && row >= 0 && row < Size
}

// Get returns the cell at (col,row); out of range reads are Empty.
func (b *Board) Get(col, row int) Cell {
	if !InRange(col, row) {
		return Empty
	}
	return b[col][row]
}

// At is Get for a Coord.
func (b *Board) At(c Coord) Cell { return b.Get(c.Col, c.Row) }

// Set places mark at (col,row). It is the only way a cell changes.
func (b *Board) Set(col, row int, mark Cell) error {
	if !mark.IsActor() {
		return ErrInvalidMark
	}
	if !InRange(col, row) {
		return ErrOutOfRange
	}
	if b[col][row] != Empty {
		return ErrCellOccupied
	}
	b[col][row] = mark
	return nil
}

// Empties lists empty cells column by column.
func (b *Board) Empties() []Coord {
	out := make([]Coord, 0, Size*Size)
	for col := 0; col < Size; col++ {
		for row := 0; row < Size; row++ {
			if b[col][row] == Empty {
				out = append(out, Coord{Col: col, Row: row})
			}
		}
	}
	return out
}

// Filled counts non-empty cells.
func (b *Board) Filled() int {
	n := 0
	for col := 0; col < Size; col++ {
		for row := 0; row < Size; row++ {
			if b[col][row] != Empty {
				n++
			}
		}
	}
	return n
}

// String draws the board one row per line, "." for empty cells.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			s := b[col][row].Symbol()
			if s == "" {
				s = "."
			}
			sb.WriteString(s)
		}
		if row < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
