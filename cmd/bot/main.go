// Command bot plays complete games against a running server over WebSocket.
// Useful for smoke-testing a deployment and for seeding the leaderboard.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/gorilla/websocket"

	"savingsmonopoly.app/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		team  = flag.String("team", "bots", "team name")
		games = flag.Int("games", 1, "number of games to play")
		seed  = flag.Int64("seed", 0, "strategy seed (0 = random)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	if *seed == 0 {
		*seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(*seed))
	logger.Printf("seed=%d games=%d", *seed, *games)

	for i := 0; i < *games; i++ {
		status, err := playGame(*url, *team, fmt.Sprintf("bot-%d", i+1), rng, logger)
		if err != nil {
			logger.Fatalf("game %d: %v", i+1, err)
		}
		logger.Printf("game %d finished: %s", i+1, status)
	}
}

// playGame runs one session to a terminal status. The strategy is blunt:
// random allocation, first affordable option on every card.
func playGame(url, team, name string, rng *rand.Rand, logger *log.Logger) (string, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Team:            team,
		PlayerName:      name,
		Allocation:      randomAllocation(rng),
	}
	if err := conn.WriteJSON(hello); err != nil {
		return "", fmt.Errorf("send HELLO: %w", err)
	}

	var welcome protocol.WelcomeMsg
	if err := expect(conn, protocol.TypeWelcome, &welcome); err != nil {
		return "", err
	}
	available := welcome.GameParams.Income - welcome.GameParams.FixedCosts
	logger.Printf("session=%s goal=%d rounds=%d available=%d",
		welcome.SessionID, welcome.GameParams.Goal, welcome.GameParams.Rounds, available)

	actSeq := 0
	nextAct := func(action string) protocol.ActMsg {
		actSeq++
		return protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			ID:              fmt.Sprintf("a%d", actSeq),
			Action:          action,
		}
	}

	// optionTried tracks CHOOSE rejections for the current card so the bot
	// walks the options instead of hammering one.
	optionTried := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeState:
			var state protocol.StateMsg
			if err := json.Unmarshal(msg, &state); err != nil {
				continue
			}
			if state.Status != "CONTINUE" {
				return state.Status, nil
			}
			switch {
			case state.Player.EFFullAlert:
				act := nextAct(protocol.ActResolveEF)
				act.Redirect = rng.Intn(2) == 0
				_ = conn.WriteJSON(act)
			case state.Player.AwaitingRoundStart:
				_ = conn.WriteJSON(nextAct(protocol.ActStartRound))
			case state.CurrentCard == nil:
				_ = conn.WriteJSON(nextAct(protocol.ActDraw))
			default:
				optionTried = 0
				act := nextAct(protocol.ActChoose)
				act.Option = rng.Intn(len(state.CurrentCard.Options))
				_ = conn.WriteJSON(act)
			}

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			switch res.Code {
			case protocol.ErrEFCap:
				act := nextAct(protocol.ActResolveEF)
				act.Redirect = true
				_ = conn.WriteJSON(act)
			case protocol.ErrNoFunds, protocol.ErrNoTime, protocol.ErrWellbeingRange:
				// Walk the remaining options; give up on the game when the
				// whole card is unaffordable.
				optionTried++
				if optionTried >= 8 {
					return "", fmt.Errorf("no settleable option: %s", res.Message)
				}
				act := nextAct(protocol.ActChoose)
				act.Option = optionTried
				_ = conn.WriteJSON(act)
			case protocol.ErrEFAlertPending:
				act := nextAct(protocol.ActResolveEF)
				act.Redirect = true
				_ = conn.WriteJSON(act)
			default:
				return "", fmt.Errorf("rejected: %s %s", res.Code, res.Message)
			}
		}
	}
}

// randomAllocation splits the default 1000 of disposable income.
func randomAllocation(rng *rand.Rand) *protocol.Allocation {
	wants := rng.Intn(11) * 50
	ef := rng.Intn((1000-wants)/50+1) * 50
	return &protocol.Allocation{
		Wants:   wants,
		EF:      ef,
		Savings: 1000 - wants - ef,
	}
}

func expect(conn *websocket.Conn, typ string, v any) error {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	if base.Type == protocol.TypeResult {
		var res protocol.ResultMsg
		_ = json.Unmarshal(msg, &res)
		return fmt.Errorf("server rejected: %s %s", res.Code, res.Message)
	}
	if base.Type != typ {
		return fmt.Errorf("expected %s, got %s", typ, base.Type)
	}
	return json.Unmarshal(msg, v)
}
