package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gigcraft.ai/internal/autopilot"
	"gigcraft.ai/internal/protocol"
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/session"
)

type AssertionMode int

const (
	AssertionStrict AssertionMode = iota
	AssertionLogOnly
)

type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// Result is where a scenario left the run.
type Result struct {
	State    *career.GameState
	Commands int
	Failures []string
}

// ErrAssertion marks a failed expectation in strict mode.
var ErrAssertion = errors.New("scenario assertion failed")

type runner struct {
	eng    *engine.Engine
	cfg    Config
	state  *career.GameState
	res    *Result
	stepNo int
}

// Run plays sc against eng from a fresh game.
func Run(ctx context.Context, eng *engine.Engine, cfg Config, sc *Scenario) (Result, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	s, err := eng.NewGame(engine.NewGameOptions{
		RunID:      "scenario-" + slug(sc.Name),
		Seed:       sc.Seed,
		Difficulty: sc.Difficulty,
		PlayerName: sc.PlayerName,
		BandName:   sc.BandName,
	})
	if err != nil {
		return Result{}, err
	}
	res := Result{State: s}
	r := &runner{eng: eng, cfg: cfg, state: s, res: &res}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.stepNo = i + 1
		if err := r.step(step); err != nil {
			return res, fmt.Errorf("%s step %d (%s): %w", sc.Name, i+1, step.Kind, err)
		}
	}
	res.State = r.state
	return res, nil
}

// RunFile loads and runs a Lua scenario.
func RunFile(ctx context.Context, eng *engine.Engine, cfg Config, path string) (Result, error) {
	sc, err := LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Run(ctx, eng, cfg, sc)
}

func (r *runner) step(st Step) error {
	switch st.Kind {
	case "turn":
		return r.exec(engine.Command{Kind: engine.CmdTurn, Action: actions.ID(stringArg(st.Args, "action", ""))}, st.Args)
	case "turns":
		action := actions.ID(stringArg(st.Args, "action", ""))
		for n := intArg(st.Args, "count", 1); n > 0 && !r.state.IsGameOver; {
			if r.state.Blocked() {
				if err := r.exec(autopilot.Next(r.eng, r.state, r.res.Commands), nil); err != nil {
					return err
				}
				continue
			}
			if err := r.exec(engine.Command{Kind: engine.CmdTurn, Action: action}, nil); err != nil {
				return err
			}
			n--
		}
		return nil
	case "choose":
		cmd := engine.Command{Kind: engine.CmdChoice, TriggerID: stringArg(st.Args, "trigger", ""), ChoiceID: stringArg(st.Args, "choice", "")}
		if cmd.TriggerID == "" {
			cmd = r.firstChoice()
		}
		return r.exec(cmd, st.Args)
	case "name_song":
		return r.exec(engine.Command{Kind: engine.CmdNameSong, TargetID: r.pendingTarget(career.NamingSong), Title: stringArg(st.Args, "title", "")}, st.Args)
	case "name_album":
		return r.exec(engine.Command{Kind: engine.CmdNameAlbum, TargetID: r.pendingTarget(career.NamingAlbum), Title: stringArg(st.Args, "title", "")}, st.Args)
	case "fire":
		return r.exec(engine.Command{Kind: engine.CmdFire, TargetID: stringArg(st.Args, "target", "")}, st.Args)
	case "record":
		plan := session.RecordingPlan{
			Kind:       career.RecordingKind(stringArg(st.Args, "kind", string(career.RecordingWriteAndRecord))),
			Studio:     stringArg(st.Args, "studio", "home"),
			Weeks:      intArg(st.Args, "weeks", 0),
			AlbumTitle: stringArg(st.Args, "title", ""),
		}
		if ids, ok := st.Args["songs"].([]any); ok {
			for _, id := range ids {
				if s, ok := id.(string); ok {
					plan.SongIDs = append(plan.SongIDs, s)
				}
			}
		}
		return r.exec(engine.Command{Kind: engine.CmdRecord, Recording: &plan}, st.Args)
	case "tour":
		plan := session.TourPlan{Size: stringArg(st.Args, "size", ""), Name: stringArg(st.Args, "name", "")}
		return r.exec(engine.Command{Kind: engine.CmdTour, Tour: &plan}, st.Args)
	case "abandon":
		return r.exec(engine.Command{Kind: engine.CmdAbandon}, st.Args)
	case "autopilot":
		for n := intArg(st.Args, "count", 1); n > 0 && !r.state.IsGameOver; n-- {
			if err := r.exec(autopilot.Next(r.eng, r.state, r.res.Commands), nil); err != nil {
				return err
			}
		}
		return nil
	case "expect":
		return r.expect(st.Args)
	default:
		return fmt.Errorf("unknown step kind %q", st.Kind)
	}
}

// exec runs cmd. With an "error" argument the command must be rejected with
// that wire code instead.
func (r *runner) exec(cmd engine.Command, args map[string]any) error {
	wantCode := stringArg(args, "error", "")
	out, err := r.eng.Execute(r.state, cmd)
	if wantCode != "" {
		got := protocol.CodeFor(err)
		if got != wantCode {
			return r.fail(fmt.Sprintf("%s: want %s, got %q (%v)", cmd.Kind, wantCode, got, err))
		}
		return nil
	}
	if err != nil {
		return err
	}
	r.state = out.State
	r.res.Commands++
	r.res.State = out.State
	if r.cfg.Verbose && out.Text != "" {
		r.cfg.Logger.Printf("week %d %s: %s", r.state.Week, cmd.Kind, out.Text)
	}
	return nil
}

func (r *runner) firstChoice() engine.Command {
	cats := r.eng.Catalogs()
	switch {
	case r.state.PendingEvent != nil:
		ev := cats.Events.ByID[r.state.PendingEvent.EventID]
		if ev != nil && len(ev.Choices) > 0 {
			return engine.Command{Kind: engine.CmdChoice, TriggerID: ev.ID, ChoiceID: ev.Choices[0].ID}
		}
	case r.state.PendingTemptation != nil:
		tm := cats.Temptations.ByID[r.state.PendingTemptation.TemptationID]
		if tm != nil && len(tm.Choices) > 0 {
			return engine.Command{Kind: engine.CmdChoice, TriggerID: tm.ID, ChoiceID: tm.Choices[0].ID}
		}
	}
	return engine.Command{Kind: engine.CmdChoice}
}

func (r *runner) pendingTarget(kind career.NamingKind) string {
	for _, n := range r.state.PendingNamings {
		if n.Kind == kind {
			return n.TargetID()
		}
	}
	return ""
}

func (r *runner) fail(msg string) error {
	r.res.Failures = append(r.res.Failures, fmt.Sprintf("step %d: %s", r.stepNo, msg))
	if r.cfg.Assertions == AssertionLogOnly {
		r.cfg.Logger.Printf("expectation: %s", msg)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAssertion, msg)
}

func (r *runner) expect(args map[string]any) error {
	field := stringArg(args, "field", "")
	op := stringArg(args, "op", "==")
	got, err := r.field(field)
	if err != nil {
		return err
	}
	ok, err := compare(got, op, args["value"])
	if err != nil {
		return err
	}
	if !ok {
		return r.fail(fmt.Sprintf("%s %s %v, got %v", field, op, args["value"], got))
	}
	return nil
}

func (r *runner) field(name string) (any, error) {
	s := r.state
	switch name {
	case "week":
		return s.Week, nil
	case "year":
		return s.Year, nil
	case "game_over":
		return s.IsGameOver, nil
	case "reason":
		return string(s.GameOverReason), nil
	case "ending":
		if s.Ending == nil {
			return "", nil
		}
		return s.Ending.Category, nil
	case "songs":
		return len(s.Songs), nil
	case "released_songs":
		return s.ReleasedSongs(), nil
	case "albums":
		return len(s.Albums), nil
	case "bandmates":
		return s.ActiveBandmates(), nil
	case "pending":
		switch {
		case s.PendingEvent != nil:
			return "event", nil
		case s.PendingTemptation != nil:
			return "temptation", nil
		case len(s.PendingNamings) > 0:
			return "naming", nil
		}
		return "", nil
	case "in_session":
		return s.InSession(), nil
	}
	v, ok := s.Player.Get(career.Stat(name))
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	return v, nil
}

func compare(got any, op string, want any) (bool, error) {
	switch g := got.(type) {
	case int:
		w, ok := want.(int)
		if !ok {
			if f, isF := want.(float64); isF {
				return compareFloat(float64(g), op, f)
			}
			return false, fmt.Errorf("want a number, got %v", want)
		}
		return compareFloat(float64(g), op, float64(w))
	case bool:
		w, ok := want.(bool)
		if !ok {
			return false, fmt.Errorf("want a boolean, got %v", want)
		}
		switch op {
		case "==":
			return g == w, nil
		case "~=", "!=":
			return g != w, nil
		}
	case string:
		w, ok := want.(string)
		if !ok {
			return false, fmt.Errorf("want a string, got %v", want)
		}
		switch op {
		case "==":
			return g == w, nil
		case "~=", "!=":
			return g != w, nil
		}
	}
	return false, fmt.Errorf("unsupported comparison %q", op)
}

func compareFloat(g float64, op string, w float64) (bool, error) {
	switch op {
	case "==":
		return g == w, nil
	case "~=", "!=":
		return g != w, nil
	case "<":
		return g < w, nil
	case "<=":
		return g <= w, nil
	case ">":
		return g > w, nil
	case ">=":
		return g >= w, nil
	}
	return false, fmt.Errorf("unsupported comparison %q", op)
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, name)
}
