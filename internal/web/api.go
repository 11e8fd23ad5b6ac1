package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-solo/internal/app"
	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

type coordDTO struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type moveDTO struct {
	Actor string `json:"actor"`
	Col   int    `json:"col"`
	Row   int    `json:"row"`
}

// statusDTO is the JSON view of a game. Board is indexed [col][row].
type statusDTO struct {
	ID           string     `json:"id"`
	State        string     `json:"state"`
	Next         string     `json:"next"`
	Turns        int        `json:"turns"`
	Board        [][]string `json:"board"`
	Winner       string     `json:"winner,omitempty"`
	WinningRoute []coordDTO `json:"winning_route,omitempty"`
	Draw         bool       `json:"draw"`
	Thinking     bool       `json:"thinking"`
	Moves        []moveDTO  `json:"moves"`
}

type errorDTO struct {
	Error string `json:"error"`
}

func toStatusDTO(gs app.GameState) statusDTO {
	out := statusDTO{
		ID:       gs.ID,
		State:    gs.State.String(),
		Turns:    gs.Turns,
		Board:    make([][]string, domain.Size),
		Draw:     gs.Outcome.Draw,
		Thinking: gs.Thinking,
		Moves:    make([]moveDTO, 0, len(gs.Moves)),
	}
	if gs.Next != domain.Empty {
		out.Next = gs.Next.String()
	}
	for col := range out.Board {
		out.Board[col] = make([]string, domain.Size)
		for row := range out.Board[col] {
			out.Board[col][row] = gs.Board.Get(col, row).Symbol()
		}
	}
	if gs.Outcome.Won {
		out.Winner = gs.Outcome.Winner.String()
		for _, c := range gs.Outcome.Route {
			out.WinningRoute = append(out.WinningRoute, coordDTO{Col: c.Col, Row: c.Row})
		}
	}
	for _, m := range gs.Moves {
		out.Moves = append(out.Moves, moveDTO{Actor: m.Actor.String(), Col: m.At.Col, Row: m.At.Row})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	msg, status := errorStatus(err)
	writeJSON(w, status, errorDTO{Error: msg})
}

func (h *handlers) apiPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	gs, err := h.svc.CreateGame(pid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorDTO{Error: "failed to create"})
		return
	}
	w.Header().Set("Location", "/api/game/"+gs.ID)
	writeJSON(w, http.StatusCreated, toStatusDTO(*gs))
}

func (h *handlers) apiStatus(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(*gs))
}

func (h *handlers) apiMove(w http.ResponseWriter, r *http.Request) {
	var req coordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorDTO{Error: "invalid json"})
		return
	}
	gs, err := h.svc.Play(chi.URLParam(r, "id"), playerFromRequest(r), req.Col, req.Row)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(*gs))
}
