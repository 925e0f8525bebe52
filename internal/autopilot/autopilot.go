// Package autopilot is a fixed, deterministic player. Bots, scripted
// scenarios and soak tests drive runs with it.
package autopilot

import (
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/session"
)

// SessionEvery is how often (in steps) the pilot tries a tour or a home
// recording.
const SessionEvery = 17

// Next picks the command for step. Pending choices are settled first (events
// with their first option, temptations rotating through theirs), pending
// titles keep their defaults, and otherwise the pilot rotates through the
// action menu. Every returned command is accepted by eng for s.
func Next(eng *engine.Engine, s *career.GameState, step int) engine.Command {
	if s.IsGameOver {
		return engine.Command{}
	}
	cats := eng.Catalogs()
	switch {
	case s.PendingEvent != nil:
		ev := cats.Events.ByID[s.PendingEvent.EventID]
		return engine.Command{Kind: engine.CmdChoice, TriggerID: ev.ID, ChoiceID: ev.Choices[0].ID}
	case s.PendingTemptation != nil:
		tm := cats.Temptations.ByID[s.PendingTemptation.TemptationID]
		return engine.Command{Kind: engine.CmdChoice, TriggerID: tm.ID, ChoiceID: tm.Choices[step%len(tm.Choices)].ID}
	case len(s.PendingNamings) > 0:
		n := s.PendingNamings[0]
		if n.Kind == career.NamingSong {
			return engine.Command{Kind: engine.CmdNameSong, TargetID: n.TargetID()}
		}
		return engine.Command{Kind: engine.CmdNameAlbum, TargetID: n.TargetID()}
	}

	if step%SessionEvery == 0 && !s.InSession() {
		for _, cmd := range []engine.Command{
			{Kind: engine.CmdTour, Tour: &session.TourPlan{Size: "regional"}},
			{Kind: engine.CmdRecord, Recording: &session.RecordingPlan{Kind: career.RecordingWriteAndRecord, Studio: "home"}},
		} {
			if accepted(eng, s, cmd) {
				return cmd
			}
		}
	}

	avail := eng.Available(s)
	if len(avail) == 0 {
		return engine.Command{Kind: engine.CmdTurn, Action: actions.Rest}
	}
	cmd := engine.Command{Kind: engine.CmdTurn, Action: avail[step%len(avail)]}
	if !accepted(eng, s, cmd) {
		cmd.Action = actions.Rest
	}
	return cmd
}

func accepted(eng *engine.Engine, s *career.GameState, cmd engine.Command) bool {
	_, err := eng.Execute(s, cmd)
	return err == nil
}
