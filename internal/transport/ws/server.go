// Package ws terminates the WebSocket protocol: HELLO/WELCOME handshake,
// then an ACT loop answered with STATE snapshots (accepted) or RESULT
// rejections (refused). All game semantics live in the session package.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"savingsmonopoly.app/internal/protocol"
	"savingsmonopoly.app/internal/sim/engine"
	"savingsmonopoly.app/internal/sim/session"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
	outQueue         = 16
)

type Server struct {
	hub *session.Hub
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *session.Hub, logger *log.Logger) *Server {
	return &Server{
		hub: h,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan []byte, outQueue)

		// Writer goroutine: the reader never touches the connection for
		// writes after the handshake.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		send := func(v any) {
			b, err := json.Marshal(v)
			if err != nil {
				return
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				send(reject("", protocol.ErrProtoBadRequest, "expected ACT"))
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				send(reject("", protocol.ErrProtoBadRequest, "malformed ACT"))
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				send(reject(act.ID, protocol.ErrProtoBadRequest, "unsupported protocol_version"))
				continue
			}
			s.dispatch(sess, act, send)
		}
	}
}

// dispatch runs one ACT against the session and queues the reply: a full
// STATE on success, a RESULT with a wire code on rejection.
func (s *Server) dispatch(sess *session.Session, act protocol.ActMsg, send func(any)) {
	var err error
	switch act.Action {
	case protocol.ActStartRound:
		err = sess.StartRound()
	case protocol.ActDraw:
		_, err = sess.Draw()
	case protocol.ActChoose:
		err = sess.Choose(act.Option)
	case protocol.ActAllocate:
		if act.Allocation == nil {
			send(reject(act.ID, protocol.ErrProtoBadRequest, "ALLOCATE requires an allocation"))
			return
		}
		err = sess.Allocate(engine.Allocation{
			Wants:   act.Allocation.Wants,
			EF:      act.Allocation.EF,
			Savings: act.Allocation.Savings,
		})
	case protocol.ActResolveEF:
		err = sess.ResolveEFOverflow(act.Redirect)
	case protocol.ActReset:
		err = sess.Reset()
	default:
		send(reject(act.ID, protocol.ErrProtoBadRequest, "unknown action "+act.Action))
		return
	}
	if err != nil {
		send(reject(act.ID, session.CodeForError(err), err.Error()))
		return
	}
	send(sess.Snapshot(act.ID))
}

// handshake reads the HELLO and answers with WELCOME plus the initial STATE.
// Returns nil when the connection should be dropped.
func (s *Server) handshake(conn *websocket.Conn) *session.Session {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "malformed HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}

	var sess *session.Session
	if hello.Auth != nil && strings.TrimSpace(hello.Auth.ResumeToken) != "" {
		resumed, ok := s.hub.Resume(strings.TrimSpace(hello.Auth.ResumeToken))
		if !ok {
			writeJSON(conn, reject("", protocol.ErrSessionNotFound, "unknown resume token"))
			return nil
		}
		sess = resumed
	} else {
		if hello.Allocation == nil {
			writeJSON(conn, reject("", protocol.ErrProtoBadRequest, "HELLO requires an allocation"))
			return nil
		}
		name := hello.PlayerName
		if name == "" {
			name = "player"
		}
		created, err := s.hub.Create(hello.Team, name, hello.GoalDesc, engine.Allocation{
			Wants:   hello.Allocation.Wants,
			EF:      hello.Allocation.EF,
			Savings: hello.Allocation.Savings,
		})
		if err != nil {
			writeJSON(conn, reject("", session.CodeForError(err), err.Error()))
			return nil
		}
		sess = created
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.ID,
		ResumeToken:     sess.ResumeToken,
		GameParams:      sess.Params(),
		DeckDigest:      s.hub.DeckDigest(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	if err := writeJSON(conn, sess.Snapshot("")); err != nil {
		return nil
	}
	if s.log != nil {
		s.log.Printf("ws attached session=%s", sess.ID)
	}
	return sess
}

func reject(ref, code, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		OK:              false,
		Code:            code,
		Message:         message,
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
