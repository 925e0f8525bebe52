package ws

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gigcraft.ai/internal/persistence/indexdb"
	"gigcraft.ai/internal/protocol"
	"gigcraft.ai/internal/runs"
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

const (
	outQueue     = 16
	writeTimeout = 5 * time.Second
)

type Server struct {
	runs        *runs.Manager
	index       *indexdb.SQLiteIndex
	log         *log.Logger
	readTimeout time.Duration

	upgrader websocket.Upgrader
}

// NewServer serves one run per connection. idx may be nil.
func NewServer(m *runs.Manager, idx *indexdb.SQLiteIndex, readTimeout time.Duration, logger *log.Logger) *Server {
	if readTimeout <= 0 {
		readTimeout = 10 * time.Minute
	}
	return &Server{
		runs:        m,
		index:       idx,
		log:         logger,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
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

		run := s.handshake(conn)
		if run == nil {
			return
		}
		defer s.runs.Release(run)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, outQueue)

		// Writer goroutine.
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
		send := func(v any) bool {
			b, err := json.Marshal(v)
			if err != nil {
				return false
			}
			select {
			case out <- b:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// Reader loop.
		for ctx.Err() == nil {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				send(ack("", protocol.ErrProtoBadRequest, "bad protocol_version"))
				continue
			}
			switch base.Type {
			case protocol.TypeCmd:
				for _, m := range s.handleCmd(run, msg) {
					if !send(m) {
						break
					}
				}
			case protocol.TypeLeaderboardReq:
				send(s.handleLeaderboard(ctx, msg))
			default:
				send(ack("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type))
			}
		}
	}
}

func (s *Server) handleCmd(run *runs.Run, msg []byte) []any {
	if err := protocol.ValidateClient(protocol.TypeCmd, msg); err != nil {
		return []any{ack(reqIDOf(msg), protocol.ErrProtoBadRequest, err.Error())}
	}
	var cm protocol.CmdMsg
	if err := json.Unmarshal(msg, &cm); err != nil {
		return []any{ack(reqIDOf(msg), protocol.ErrProtoBadRequest, err.Error())}
	}
	out, e, err := run.Apply(cm.Command)
	if err != nil {
		code := protocol.CodeFor(err)
		if code == protocol.ErrInternal && s.log != nil {
			s.log.Printf("run %s: %s: %v", run.ID(), cm.Command.Kind, err)
		}
		return []any{ack(cm.ReqID, code, err.Error())}
	}
	a := ack(cm.ReqID, "", "")
	a.Text = out.Text
	a.Week = out.State.Week
	st := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		RunID:           run.ID(),
		Week:            out.State.Week,
		Digest:          e.Digest,
		Available:       s.available(out.State),
		Turn:            out.Turn,
		State:           out.State,
	}
	return []any{a, st}
}

func (s *Server) handleLeaderboard(ctx context.Context, msg []byte) any {
	if err := protocol.ValidateClient(protocol.TypeLeaderboardReq, msg); err != nil {
		return ack(reqIDOf(msg), protocol.ErrProtoBadRequest, err.Error())
	}
	var req protocol.LeaderboardReqMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return ack(reqIDOf(msg), protocol.ErrProtoBadRequest, err.Error())
	}
	resp := protocol.LeaderboardMsg{
		Type:            protocol.TypeLeaderboard,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Entries:         []protocol.LeaderboardEntry{},
	}
	if s.index == nil {
		return resp
	}
	rows, err := s.index.TopEndings(ctx, req.Limit)
	if err != nil {
		return ack(req.ReqID, protocol.ErrInternal, err.Error())
	}
	for _, r := range rows {
		resp.Entries = append(resp.Entries, protocol.LeaderboardEntry{
			RunID:     r.RunID,
			BandName:  r.BandName,
			Week:      r.Week,
			Category:  r.Category,
			Variation: r.Variation,
			Title:     r.Title,
			Fans:      r.Fans,
			Money:     r.Money,
		})
	}
	return resp
}

func (s *Server) handshake(conn *websocket.Conn) *runs.Run {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	if err := protocol.ValidateClient(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}

	resumeToken := ""
	if hello.Auth != nil {
		resumeToken = strings.TrimSpace(hello.Auth.Token)
	}

	var run *runs.Run
	resumed := resumeToken != ""
	if resumed {
		run, err = s.runs.Attach(resumeToken)
	} else {
		opts := engine.NewGameOptions{
			Difficulty: hello.Difficulty,
			PlayerName: hello.PlayerName,
			BandName:   hello.BandName,
			RandomSeed: hello.Seed == nil,
		}
		if hello.Seed != nil {
			opts.Seed = *hello.Seed
		}
		run, err = s.runs.Create(opts)
		if err == nil {
			run, err = s.runs.Attach(run.ID())
		}
	}
	if err != nil {
		code := protocol.CodeFor(err)
		switch {
		case errors.Is(err, runs.ErrRunNotFound):
			code = protocol.ErrRunNotFound
		case errors.Is(err, runs.ErrRunBusy):
			code = protocol.ErrRunBusy
		}
		if code == protocol.ErrInternal && s.log != nil {
			s.log.Printf("hello: %v", err)
		}
		_ = writeJSON(conn, ack(protocol.TypeHello, code, err.Error()))
		closeWith(conn, code)
		return nil
	}

	st := run.State()
	digest, _ := engine.Digest(st)
	if err := writeJSON(conn, s.welcome(run, resumed)); err != nil {
		s.runs.Release(run)
		return nil
	}
	state := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		RunID:           run.ID(),
		Week:            st.Week,
		Digest:          digest,
		Available:       s.available(st),
		State:           st,
	}
	if err := writeJSON(conn, state); err != nil {
		s.runs.Release(run)
		return nil
	}
	if s.log != nil {
		s.log.Printf("run %s attached (resumed=%v week=%d)", run.ID(), resumed, st.Week)
	}
	return run
}

func (s *Server) welcome(run *runs.Run, resumed bool) protocol.WelcomeMsg {
	eng := s.runs.Engine()
	cats := eng.Catalogs()
	tu := eng.Tuning()
	st := run.State()

	diffs := make([]string, 0, len(tu.Difficulties))
	for name := range tu.Difficulties {
		diffs = append(diffs, name)
	}
	sort.Strings(diffs)
	tb, _ := json.Marshal(tu)
	sum := sha256.Sum256(tb)

	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		RunID:           run.ID(),
		ResumeToken:     run.ID(),
		Resumed:         resumed,
		RunParams: protocol.RunParams{
			Seed:         st.Seed,
			Difficulty:   st.Difficulty,
			MaxWeeks:     tu.MaxWeeks,
			Difficulties: diffs,
		},
		Catalogs: protocol.CatalogDigests{
			CatalogDigest:     cats.Digest,
			EventsDigest:      cats.Events.Digest,
			ArcsDigest:        cats.Arcs.Digest,
			TemptationsDigest: cats.Temptations.Digest,
			VenuesDigest:      cats.Venues.Digest,
			TuningDigest:      hex.EncodeToString(sum[:]),
		},
	}
}

func ack(reqID, code, message string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          reqID,
		Accepted:        code == "",
		Code:            code,
		Message:         message,
	}
}

// available is empty while the run waits on a choice or a title.
func (s *Server) available(st *career.GameState) []actions.ID {
	out := []actions.ID{}
	if st.IsGameOver || st.Blocked() {
		return out
	}
	return append(out, s.runs.Engine().Available(st)...)
}

func reqIDOf(msg []byte) string {
	var m struct {
		ReqID string `json:"req_id"`
	}
	_ = json.Unmarshal(msg, &m)
	return m.ReqID
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
