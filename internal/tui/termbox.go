package tui

import (
	"time"

	"github.com/nsf/termbox-go"

	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

// cellColumn is the screen column of a grid cell's mark.
func cellColumn(col int) int { return col*4 + 1 }

// Run draws m and reads keys until the user quits. Keys other than quit
// are ignored while the computer is thinking.
func Run(m *Model, delay time.Duration) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	events := make(chan termbox.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	defer termbox.Interrupt()

	var reply <-chan time.Time
	if err := draw(m); err != nil {
		return err
	}
	for {
		select {
		case <-reply:
			reply = nil
			if err := m.ComputerTurn(); err != nil {
				return err
			}
		case ev := <-events:
			if ev.Type == termbox.EventError {
				return ev.Err
			}
			if ev.Type != termbox.EventKey {
				break
			}
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q' {
				return nil
			}
			if m.Thinking() {
				break
			}
			switch {
			case ev.Key == termbox.KeyArrowLeft || ev.Ch == 'h':
				m.MoveCursor(-1, 0)
			case ev.Key == termbox.KeyArrowRight || ev.Ch == 'l':
				m.MoveCursor(1, 0)
			case ev.Key == termbox.KeyArrowUp || ev.Ch == 'k':
				m.MoveCursor(0, -1)
			case ev.Key == termbox.KeyArrowDown || ev.Ch == 'j':
				m.MoveCursor(0, 1)
			case ev.Key == termbox.KeyEnter || ev.Key == termbox.KeySpace:
				if m.Place() {
					reply = time.After(delay)
				}
			}
		}
		if err := draw(m); err != nil {
			return err
		}
	}
}

func draw(m *Model) error {
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return err
	}
	lines := m.Lines()
	for y, line := range lines {
		for x, ch := range []rune(line) {
			termbox.SetCell(x, y, ch, termbox.ColorDefault, termbox.ColorDefault)
		}
	}
	// grid rows sit on every other line
	for row := 0; row < domain.Size; row++ {
		line := []rune(lines[row*2])
		for col := 0; col < domain.Size; col++ {
			if m.Highlighted(col, row) {
				x := cellColumn(col)
				termbox.SetCell(x, row*2, line[x], termbox.ColorGreen|termbox.AttrBold, termbox.ColorDefault)
			}
		}
	}
	return termbox.Flush()
}
