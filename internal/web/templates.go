package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-solo/internal/app"
	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(gs app.GameState, col, row int) string { return gs.Board.Get(col, row).Symbol() },
		"highlight":  func(gs app.GameState, col, row int) bool { return gs.Highlighted(col, row) },
		"status":     statusText,
		"finished":   func(gs app.GameState) bool { return gs.State == domain.Finished },
	}
}

func statusText(gs app.GameState) string {
	switch {
	case gs.State == domain.Finished && gs.Outcome.Won:
		return gs.Outcome.Winner.String() + " wins"
	case gs.State == domain.Finished:
		return "Draw"
	case gs.Thinking:
		return "Computer is thinking"
	default:
		return "Your move"
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>TicTacToe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.cell button{width:4em;height:4em;font-size:1.5em}
.cell.win button{background:#9f9}.alert{color:#b00}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>TicTacToe</h1><p>You play X, the computer plays O.</p><form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board-wrap" hx-sse="swap:board">{{template "board" .}}</div>
</div>
<form action="/game" method="post"><button>New game</button></form>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

// boardTemplate draws rows top to bottom; each cell posts its column and row.
const boardTemplate = `
<div id="board" data-state="{{.Game.State}}">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{status .Game}}</div>
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      <form class="cell{{if highlight $.Game $c $r}} win{{end}}" hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="c" value="{{$c}}">
        <input type="hidden" name="r" value="{{$r}}">
        <button type="submit"{{if or (finished $.Game) $.Game.Thinking}} disabled{{end}}>{{cellSymbol $.Game $c $r}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

type boardData struct {
	ID    string
	Game  app.GameState
	Error string
}

const playerCookie = "player_id"

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil && c.Value != "" {
		return c.Value
	}
	// Generate UUIDv4 for player ID
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: playerCookie, Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}

func playerFromRequest(r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil {
		return c.Value
	}
	return ""
}
