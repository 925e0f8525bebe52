package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"gigcraft.ai/internal/autopilot"
	"gigcraft.ai/internal/config"
	"gigcraft.ai/internal/protocol"
	"gigcraft.ai/internal/sim/engine"
)

const maxRejects = 20

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		band      = flag.String("band", "", "band name for a new run")
		seed      = flag.Int64("seed", 0, "seed for a new run (0 picks one at random)")
		resume    = flag.String("resume", "", "resume token of an existing run")
		steps     = flag.Int("steps", 0, "stop after this many commands (0 plays to the end)")
		delay     = flag.Duration("delay", 0, "pause between commands")
		configDir = flag.String("configs", "./configs", "config directory (the bot plans with a local engine)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	eng, err := config.LoadEngine(*configDir, filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		logger.Fatalf("load engine: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		BandName:        *band,
	}
	if *seed != 0 {
		hello.Seed = seed
	}
	if *resume != "" {
		hello.Auth = &protocol.HelloAuth{Token: *resume}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, eng: eng, log: logger, maxSteps: *steps, delay: *delay}
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		done := false
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME run_id=%s resumed=%v seed=%d difficulty=%s", w.RunID, w.Resumed, w.RunParams.Seed, w.RunParams.Difficulty)
		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			done = b.onState(&st)
		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			done = b.onAck(&a)
		}
		if done {
			return
		}
	}
}

type bot struct {
	conn     *websocket.Conn
	eng      *engine.Engine
	log      *log.Logger
	maxSteps int
	delay    time.Duration

	last    *protocol.StateMsg
	step    int
	rejects int
}

func (b *bot) onState(st *protocol.StateMsg) bool {
	b.last = st
	if st.State == nil {
		return true
	}
	if st.State.IsGameOver {
		if e := st.State.Ending; e != nil {
			b.log.Printf("game over week %d: %s (%s/%s)", st.Week, e.Title, e.Category, e.Variation)
		} else {
			b.log.Printf("game over week %d: %s", st.Week, st.State.GameOverReason)
		}
		return true
	}
	if b.maxSteps > 0 && b.step >= b.maxSteps {
		b.log.Printf("stopping at week %d after %d commands", st.Week, b.step)
		return true
	}
	return !b.send()
}

func (b *bot) onAck(a *protocol.AckMsg) bool {
	if a.Accepted {
		b.rejects = 0
		if a.Text != "" {
			b.log.Printf("week %d: %s", a.Week, a.Text)
		}
		return false
	}
	if a.AckFor == protocol.TypeHello {
		b.log.Printf("HELLO rejected: %s %s", a.Code, a.Message)
		return true
	}
	b.rejects++
	b.log.Printf("rejected %s: %s %s", a.AckFor, a.Code, a.Message)
	if b.rejects >= maxRejects || b.last == nil {
		return true
	}
	// Plan again from the last known state with a different rotation.
	b.step++
	return !b.send()
}

func (b *bot) send() bool {
	cmd := autopilot.Next(b.eng, b.last.State, b.step)
	if cmd.Kind == "" {
		return false
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	b.step++
	msg := protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		ReqID:           fmt.Sprintf("c%d", b.step),
		Command:         cmd,
	}
	return b.conn.WriteJSON(msg) == nil
}
