package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"savingsmonopoly.app/internal/protocol"
	"savingsmonopoly.app/internal/sim/deck"
	"savingsmonopoly.app/internal/sim/engine"
	"savingsmonopoly.app/internal/sim/session"
)

type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

func newTestServer(t *testing.T) (*httptest.Server, *session.Hub) {
	t.Helper()
	d := &deck.Deck{
		Cards: []deck.Card{{
			Title: "Quiet Month",
			Type:  deck.TypeNeutral,
			Options: []deck.Option{
				{Label: "Relax", Wellbeing: 1},
				{Label: "Side gig", Money: 150, Time: -1},
			},
		}},
		Digest: "deadbeef",
	}
	hub, err := session.NewHub(session.HubConfig{
		Engine: engine.Config{
			Goal: 5000, Income: 2000, FixedCosts: 1000, Rounds: 10, EFCap: 3000,
		},
		Deck:    d,
		NewRand: func() engine.Rand { return zeroRand{} },
	})
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	srv := httptest.NewServer(NewServer(hub, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readMsg(t *testing.T, conn *websocket.Conn, v any) string {
	t.Helper()
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return base.Type
}

func hello(alloc *protocol.Allocation) protocol.HelloMsg {
	return protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Team:            "Alpha",
		PlayerName:      "Riley",
		GoalDesc:        "Laptop",
		Allocation:      alloc,
	}
}

func act(id, action string) protocol.ActMsg {
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Action:          action,
	}
}

func TestHandshakeAndRound(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	sendJSON(t, conn, hello(&protocol.Allocation{Wants: 400, EF: 300, Savings: 300}))

	var welcome protocol.WelcomeMsg
	if typ := readMsg(t, conn, &welcome); typ != protocol.TypeWelcome {
		t.Fatalf("first message type = %s, want WELCOME", typ)
	}
	if welcome.SessionID != "S1" || welcome.DeckDigest != "deadbeef" {
		t.Fatalf("welcome = %+v", welcome)
	}
	if welcome.GameParams.Goal != 5000 || welcome.GameParams.FundingPolicy != "wants_first" {
		t.Fatalf("game params = %+v", welcome.GameParams)
	}

	var state protocol.StateMsg
	if typ := readMsg(t, conn, &state); typ != protocol.TypeState {
		t.Fatalf("second message type = %s, want STATE", typ)
	}
	if state.Status != "CONTINUE" || !state.Player.AwaitingRoundStart {
		t.Fatalf("initial state = %+v", state)
	}

	sendJSON(t, conn, act("a1", protocol.ActStartRound))
	if typ := readMsg(t, conn, &state); typ != protocol.TypeState {
		t.Fatalf("START_ROUND reply type = %s", typ)
	}
	if state.Ref != "a1" || state.Player.WantsBalance != 400 {
		t.Fatalf("post-start state = %+v", state)
	}

	sendJSON(t, conn, act("a2", protocol.ActDraw))
	if typ := readMsg(t, conn, &state); typ != protocol.TypeState {
		t.Fatalf("DRAW reply type = %s", typ)
	}
	if state.CurrentCard == nil || state.CurrentCard.Title != "Quiet Month" {
		t.Fatalf("post-draw state = %+v", state)
	}

	choose := act("a3", protocol.ActChoose)
	choose.Option = 1
	sendJSON(t, conn, choose)
	if typ := readMsg(t, conn, &state); typ != protocol.TypeState {
		t.Fatalf("CHOOSE reply type = %s", typ)
	}
	if state.Player.RoundsPlayed != 1 || state.Player.Savings != 450 {
		t.Fatalf("post-choose state = %+v", state)
	}
	if len(state.Player.DecisionLog) != 1 || state.Player.DecisionLog[0].Choice != "Side gig" {
		t.Fatalf("decision log = %+v", state.Player.DecisionLog)
	}
}

func TestRejectedActionsReturnResult(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)
	sendJSON(t, conn, hello(&protocol.Allocation{Wants: 400, EF: 300, Savings: 300}))
	var welcome protocol.WelcomeMsg
	readMsg(t, conn, &welcome)
	var state protocol.StateMsg
	readMsg(t, conn, &state)

	// CHOOSE before any card is drawn.
	sendJSON(t, conn, act("r1", protocol.ActChoose))
	var res protocol.ResultMsg
	if typ := readMsg(t, conn, &res); typ != protocol.TypeResult {
		t.Fatalf("reply type = %s, want RESULT", typ)
	}
	if res.OK || res.Code != protocol.ErrNoCard || res.Ref != "r1" {
		t.Fatalf("result = %+v", res)
	}

	// Unknown action.
	sendJSON(t, conn, act("r2", "DANCE"))
	if typ := readMsg(t, conn, &res); typ != protocol.TypeResult {
		t.Fatalf("reply type = %s, want RESULT", typ)
	}
	if res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("result = %+v", res)
	}

	// ALLOCATE without a payload.
	sendJSON(t, conn, act("r3", protocol.ActAllocate))
	if typ := readMsg(t, conn, &res); typ != protocol.TypeResult {
		t.Fatalf("reply type = %s, want RESULT", typ)
	}
	if res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("result = %+v", res)
	}

	// A rejection must not break the session.
	sendJSON(t, conn, act("r4", protocol.ActStartRound))
	if typ := readMsg(t, conn, &state); typ != protocol.TypeState {
		t.Fatalf("reply type after rejection = %s, want STATE", typ)
	}
}

func TestResume(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)
	sendJSON(t, conn, hello(&protocol.Allocation{Wants: 400, EF: 300, Savings: 300}))
	var welcome protocol.WelcomeMsg
	readMsg(t, conn, &welcome)
	var state protocol.StateMsg
	readMsg(t, conn, &state)
	sendJSON(t, conn, act("a1", protocol.ActStartRound))
	readMsg(t, conn, &state)
	conn.Close()

	conn2 := dialWS(t, srv)
	sendJSON(t, conn2, protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Auth:            &protocol.HelloAuth{ResumeToken: welcome.ResumeToken},
	})
	var welcome2 protocol.WelcomeMsg
	if typ := readMsg(t, conn2, &welcome2); typ != protocol.TypeWelcome {
		t.Fatalf("resume reply type = %s", typ)
	}
	if welcome2.SessionID != welcome.SessionID {
		t.Fatalf("resumed session = %s, want %s", welcome2.SessionID, welcome.SessionID)
	}
	if typ := readMsg(t, conn2, &state); typ != protocol.TypeState {
		t.Fatalf("resume state type = %s", typ)
	}
	if state.Player.WantsBalance != 400 {
		t.Fatalf("resumed state = %+v", state)
	}

	conn3 := dialWS(t, srv)
	sendJSON(t, conn3, protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Auth:            &protocol.HelloAuth{ResumeToken: "resume_S1_bogus"},
	})
	var res protocol.ResultMsg
	if typ := readMsg(t, conn3, &res); typ != protocol.TypeResult {
		t.Fatalf("bogus resume reply type = %s", typ)
	}
	if res.Code != protocol.ErrSessionNotFound {
		t.Fatalf("result = %+v", res)
	}
}

func TestHelloValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	// Missing allocation.
	conn := dialWS(t, srv)
	sendJSON(t, conn, hello(nil))
	var res protocol.ResultMsg
	if typ := readMsg(t, conn, &res); typ != protocol.TypeResult {
		t.Fatalf("reply type = %s, want RESULT", typ)
	}
	if res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("result = %+v", res)
	}

	// Allocation that does not sum to the available income.
	conn2 := dialWS(t, srv)
	sendJSON(t, conn2, hello(&protocol.Allocation{Wants: 1, EF: 1, Savings: 1}))
	if typ := readMsg(t, conn2, &res); typ != protocol.TypeResult {
		t.Fatalf("reply type = %s, want RESULT", typ)
	}
	if res.Code != protocol.ErrAllocationMismatch {
		t.Fatalf("result = %+v", res)
	}
}
