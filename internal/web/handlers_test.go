package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-solo/internal/app"
	"github.com/jaminalder/tictactoe-solo/internal/domain"
)

// firstEmpty always plays the first empty cell, column by column.
type firstEmpty struct{}

func (firstEmpty) ChooseMove(b domain.Board, _ domain.RouteTable) (domain.Coord, error) {
	return b.Empties()[0], nil
}

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(app.WithChooser(firstEmpty{}))
	h := NewServer(s)
	return s, h
}

func postForm(h http.Handler, path string, form url.Values, player string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if player != "" {
		req.AddCookie(&http.Cookie{Name: playerCookie, Value: player})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
}

func TestCreateRedirectsToGameAndSetsOwner(t *testing.T) {
	svc, h := newTestServer(t)
	req := httptest.NewRequest("POST", "/game", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == playerCookie {
			playerID = c.Value
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok || gs.Owner != playerID {
		t.Fatalf("expected game owned by %q, got %+v", playerID, gs)
	}
}

func TestGamePageRendersBoardAndSSEWiring(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame("p1")

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `hx-ext="sse"`)
	require.Contains(t, body, "/game/"+gs.ID+"/events")
	require.Contains(t, body, `id="board"`)
	require.Contains(t, body, "Your move")
	require.Equal(t, 9, strings.Count(body, `hx-post="/game/`+gs.ID+`/play"`))
}

func TestGamePageUnknownID(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPlayEndpointAppliesBothMoves(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame("p1")

	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"c": {"1"}, "r": {"1"}}, "p1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `id="board"`)
	require.NotContains(t, rr.Body.String(), `class="alert"`)

	latest, _ := svc.Get(gs.ID)
	require.Equal(t, 2, latest.Turns)
	require.Equal(t, domain.Player, latest.Board.Get(1, 1))
	require.Equal(t, domain.Computer, latest.Board.Get(0, 0))
}

func TestPlayEndpointReportsErrors(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame("p1")

	cases := []struct {
		name   string
		form   url.Values
		player string
		want   string
	}{
		{"stranger", url.Values{"c": {"0"}, "r": {"0"}}, "p2", "This is not your game"},
		{"garbage", url.Values{"c": {"x"}, "r": {"0"}}, "p1", "Out of range"},
		{"outside", url.Values{"c": {"3"}, "r": {"0"}}, "p1", "Out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postForm(h, "/game/"+gs.ID+"/play", tc.form, tc.player)
			require.Equal(t, http.StatusOK, rr.Code)
			require.Contains(t, rr.Body.String(), tc.want)
		})
	}

	// computer replied at (0,0) after the first move
	postForm(h, "/game/"+gs.ID+"/play", url.Values{"c": {"2"}, "r": {"2"}}, "p1")
	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"c": {"0"}, "r": {"0"}}, "p1")
	require.Contains(t, rr.Body.String(), "Cell is occupied")

	rr = postForm(h, "/game/missing/play", url.Values{"c": {"0"}, "r": {"0"}}, "p1")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPlayEndpointShowsWinner(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame("p1")
	// computer fills column 0 from the top; player takes column 2
	var rr *httptest.ResponseRecorder
	for _, row := range []string{"0", "1", "2"} {
		rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"c": {"2"}, "r": {row}}, "p1")
	}
	body := rr.Body.String()
	require.Contains(t, body, "Player wins")
	require.Equal(t, 3, strings.Count(body, "cell win"))
	require.Contains(t, body, "disabled")
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	// create a game via POST
	reqCreate := httptest.NewRequest("POST", "/game", nil)
	rrCreate := httptest.NewRecorder()
	h.ServeHTTP(rrCreate, reqCreate)
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	// Request SSE
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestWriteSSESplitsLines(t *testing.T) {
	var buf bytes.Buffer
	writeSSE(&buf, "board", []byte("<div>\n<p>x</p>\n</div>\n"))
	require.Equal(t, "event: board\ndata: <div>\ndata: <p>x</p>\ndata: </div>\n\n", buf.String())
}

func TestAPIFlow(t *testing.T) {
	svc, h := newTestServer(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/game", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created statusDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "not_started", created.State)
	require.Equal(t, "Player", created.Next)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	move := func(col, row int) *httptest.ResponseRecorder {
		body, _ := json.Marshal(coordDTO{Col: col, Row: row})
		req := httptest.NewRequest("POST", "/api/game/"+created.ID+"/move", bytes.NewReader(body))
		req.AddCookie(cookies[0])
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr = move(1, 1)
	require.Equal(t, http.StatusOK, rr.Code)
	var st statusDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	require.Equal(t, "in_progress", st.State)
	require.Equal(t, 2, st.Turns)
	require.Equal(t, "X", st.Board[1][1])
	require.Equal(t, "O", st.Board[0][0])
	require.Len(t, st.Moves, 2)

	rr = move(0, 0)
	require.Equal(t, http.StatusConflict, rr.Code)
	rr = move(7, 0)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/game/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/game/missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	// a different cookie may not move
	gs, _ := svc.Get(created.ID)
	body, _ := json.Marshal(coordDTO{Col: 2, Row: 2})
	req := httptest.NewRequest("POST", "/api/game/"+gs.ID+"/move", bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: playerCookie, Value: "intruder"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPIStatusReportsWinningRoute(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame("")
	for _, row := range []int{0, 1, 2} {
		_, err := svc.Play(gs.ID, "", 2, row)
		require.NoError(t, err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/game/"+gs.ID, nil))
	var st statusDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	require.Equal(t, "finished", st.State)
	require.Equal(t, "Player", st.Winner)
	require.Equal(t, []coordDTO{{2, 0}, {2, 1}, {2, 2}}, st.WinningRoute)
	require.Empty(t, st.Next)
}

func TestWebSocketPushesStatus(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	gs, _ := svc.CreateGame("")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + gs.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	readStatus := func() statusDTO {
		t.Helper()
		for {
			var msg wsMessage
			require.NoError(t, conn.ReadJSON(&msg))
			if msg.Type != "status" {
				continue
			}
			var st statusDTO
			require.NoError(t, json.Unmarshal(msg.Payload, &st))
			return st
		}
	}

	first := readStatus()
	require.Equal(t, 0, first.Turns)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "move", Payload: mustMarshal(coordDTO{Col: 1, Row: 1})}))
	st := readStatus()
	require.Equal(t, 2, st.Turns)
	require.Equal(t, "X", st.Board[1][1])

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "move", Payload: mustMarshal(coordDTO{Col: 1, Row: 1})}))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
	require.Contains(t, string(msg.Payload), "Cell is occupied")
}
