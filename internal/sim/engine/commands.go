package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/session"
)

// ApplyChoice resolves the pending event, or the pending temptation when no
// event waits. triggerID may be empty; if set it must name the pending one.
func (e *Engine) ApplyChoice(s *career.GameState, triggerID, choiceID string) (*career.GameState, string, error) {
	return e.ApplyChoiceWith(s, triggerID, choiceID, nil)
}

func (e *Engine) ApplyChoiceWith(s *career.GameState, triggerID, choiceID string, r *rng.RNG) (*career.GameState, string, error) {
	if s.IsGameOver {
		return s, "", ErrGameOver
	}
	ru, _, err := e.rules(s)
	if err != nil {
		return s, "", err
	}
	ns := s.Clone()
	var text string
	switch {
	case ns.PendingEvent != nil:
		if triggerID != "" && triggerID != ns.PendingEvent.EventID {
			return s, "", fmt.Errorf("%w: %s is pending", ErrWrongTrigger, ns.PendingEvent.EventID)
		}
		if r == nil {
			r = rng.ForTurn(s.Seed, s.Week, rng.SaltChoice)
		}
		text, err = ru.ResolveEvent(ns, choiceID, r)
	case ns.PendingTemptation != nil:
		if triggerID != "" && triggerID != ns.PendingTemptation.TemptationID {
			return s, "", fmt.Errorf("%w: %s is pending", ErrWrongTrigger, ns.PendingTemptation.TemptationID)
		}
		if r == nil {
			r = rng.ForTurn(s.Seed, s.Week, rng.SaltTempt)
		}
		text, err = ru.ResolveTemptation(ns, choiceID, r)
	default:
		return s, "", ErrNothingPending
	}
	if err != nil {
		return s, "", err
	}
	if reason := e.terminal(ns); reason == career.ReasonDeath || reason == career.ReasonBroke {
		e.finish(ns, reason)
		text += fmt.Sprintf(" Game over: %s.", reason)
	}
	ns.Stats.Observe(ns.Player)
	return ns, text, nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", fmt.Errorf("%w: longer than %d characters", ErrBadTitle, maxTitleLen)
	}
	return title, nil
}

func (e *Engine) takeNaming(s *career.GameState, kind career.NamingKind, id string) (career.PendingNaming, bool) {
	for i, n := range s.PendingNamings {
		if n.Kind == kind && n.TargetID() == id {
			s.PendingNamings = append(s.PendingNamings[:i], s.PendingNamings[i+1:]...)
			return n, true
		}
	}
	return career.PendingNaming{}, false
}

// NameSong settles a pending song title. An empty title keeps the default.
func (e *Engine) NameSong(s *career.GameState, songID, title string) (*career.GameState, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	n, ok := e.takeNaming(ns, career.NamingSong, songID)
	if !ok {
		return s, fmt.Errorf("%w: song %s", ErrNoNaming, songID)
	}
	if title == "" {
		title = n.Song.DefaultTitle
	}
	song, ok := ns.Song(songID)
	if !ok {
		return s, fmt.Errorf("%w: song %s", ErrNoNaming, songID)
	}
	song.Title = title
	return ns, nil
}

func (e *Engine) NameAlbum(s *career.GameState, albumID, title string) (*career.GameState, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	n, ok := e.takeNaming(ns, career.NamingAlbum, albumID)
	if !ok {
		return s, fmt.Errorf("%w: album %s", ErrNoNaming, albumID)
	}
	if title == "" {
		title = n.Album.DefaultTitle
	}
	album, ok := ns.Album(albumID)
	if !ok {
		return s, fmt.Errorf("%w: album %s", ErrNoNaming, albumID)
	}
	album.Title = title
	return ns, nil
}

// FireBandmate lets a member go. It does not use a week.
func (e *Engine) FireBandmate(s *career.GameState, id string) (*career.GameState, string, error) {
	if s.IsGameOver {
		return s, "", ErrGameOver
	}
	ns := s.Clone()
	if err := ns.FireBandmate(id); err != nil {
		return s, "", err
	}
	b, _ := ns.Bandmate(id)
	return ns, fmt.Sprintf("%s is out of the band.", b.Name), nil
}

func (e *Engine) sessionGuard(s *career.GameState) error {
	if s.IsGameOver {
		return ErrGameOver
	}
	if s.Blocked() {
		return ErrBlocked
	}
	return nil
}

func (e *Engine) StartRecording(s *career.GameState, plan session.RecordingPlan) (*career.GameState, string, error) {
	if err := e.sessionGuard(s); err != nil {
		return s, "", err
	}
	ns := s.Clone()
	r := rng.ForTurn(s.Seed, s.Week, rng.SaltSession)
	if err := session.StartRecording(ns, plan, e.tu, e.cats.Names, r); err != nil {
		return s, "", err
	}
	rs := ns.RecordingSession
	return ns, fmt.Sprintf("Booked %d weeks at %s for %q.", rs.WeeksRequired, rs.Studio, rs.AlbumTitle), nil
}

func (e *Engine) StartTour(s *career.GameState, plan session.TourPlan) (*career.GameState, string, error) {
	if err := e.sessionGuard(s); err != nil {
		return s, "", err
	}
	ns := s.Clone()
	if err := session.StartTour(ns, plan, e.tu); err != nil {
		return s, "", err
	}
	ts := ns.TourSession
	return ns, fmt.Sprintf("%s starts: %d weeks, %d shows a week.", ts.Name, ts.WeeksRequired, ts.ShowsPerWeek), nil
}

// Abandon ends the running session without using a week.
func (e *Engine) Abandon(s *career.GameState) (*career.GameState, string, error) {
	if s.IsGameOver {
		return s, "", ErrGameOver
	}
	ns := s.Clone()
	text, err := session.Abandon(ns)
	if err != nil {
		return s, "", err
	}
	return ns, text, nil
}

type CommandKind string

const (
	CmdTurn      CommandKind = "turn"
	CmdChoice    CommandKind = "choice"
	CmdNameSong  CommandKind = "name_song"
	CmdNameAlbum CommandKind = "name_album"
	CmdFire      CommandKind = "fire"
	CmdRecord    CommandKind = "start_recording"
	CmdTour      CommandKind = "start_tour"
	CmdAbandon   CommandKind = "abandon"
)

// Command is one player input. Commands are what the run log records and
// what replays feed back in.
type Command struct {
	Kind      CommandKind            `json:"kind"`
	Action    actions.ID             `json:"action,omitempty"`
	TriggerID string                 `json:"triggerId,omitempty"`
	ChoiceID  string                 `json:"choiceId,omitempty"`
	TargetID  string                 `json:"targetId,omitempty"`
	Title     string                 `json:"title,omitempty"`
	Recording *session.RecordingPlan `json:"recording,omitempty"`
	Tour      *session.TourPlan      `json:"tour,omitempty"`
}

type Outcome struct {
	State *career.GameState
	Text  string
	Turn  *TurnResult
}

// Execute dispatches a command. On error the outcome carries s unchanged.
func (e *Engine) Execute(s *career.GameState, cmd Command) (Outcome, error) {
	var (
		ns   *career.GameState
		text string
		err  error
	)
	switch cmd.Kind {
	case CmdTurn:
		res, err := e.ResolveTurn(s, cmd.Action)
		if err != nil {
			return Outcome{State: s}, err
		}
		return Outcome{State: res.State, Text: res.Text, Turn: &res}, nil
	case CmdChoice:
		ns, text, err = e.ApplyChoice(s, cmd.TriggerID, cmd.ChoiceID)
	case CmdNameSong:
		ns, err = e.NameSong(s, cmd.TargetID, cmd.Title)
	case CmdNameAlbum:
		ns, err = e.NameAlbum(s, cmd.TargetID, cmd.Title)
	case CmdFire:
		ns, text, err = e.FireBandmate(s, cmd.TargetID)
	case CmdRecord:
		if cmd.Recording == nil {
			return Outcome{State: s}, fmt.Errorf("%w: recording plan missing", ErrBadCommand)
		}
		ns, text, err = e.StartRecording(s, *cmd.Recording)
	case CmdTour:
		if cmd.Tour == nil {
			return Outcome{State: s}, fmt.Errorf("%w: tour plan missing", ErrBadCommand)
		}
		ns, text, err = e.StartTour(s, *cmd.Tour)
	case CmdAbandon:
		ns, text, err = e.Abandon(s)
	default:
		return Outcome{State: s}, fmt.Errorf("%w: %q", ErrBadCommand, cmd.Kind)
	}
	if err != nil {
		return Outcome{State: s}, err
	}
	return Outcome{State: ns, Text: text}, nil
}
