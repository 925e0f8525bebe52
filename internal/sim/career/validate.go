package career

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("invalid game state")

// Validate checks the structural invariants every snapshot must hold. The
// engine calls it on decode and after each operation in tests.
func (s *GameState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidState)
	}
	if s.Week < 1 {
		return fmt.Errorf("%w: week %d", ErrInvalidState, s.Week)
	}
	if s.Year != YearForWeek(s.Week) {
		return fmt.Errorf("%w: year %d does not match week %d", ErrInvalidState, s.Year, s.Week)
	}
	for _, st := range BoundedStats {
		v, _ := s.Player.Get(st)
		if v < StatMin || v > StatMax {
			return fmt.Errorf("%w: %s=%d out of range", ErrInvalidState, st, v)
		}
	}
	if s.Player.Fans < 0 || s.Player.Followers < 0 {
		return fmt.Errorf("%w: negative audience", ErrInvalidState)
	}
	if s.RecordingSession != nil && s.TourSession != nil {
		return fmt.Errorf("%w: recording and tour sessions both active", ErrInvalidState)
	}
	if s.RecordingSession != nil && s.RecordingSession.WeeksRemaining < 1 {
		return fmt.Errorf("%w: finished recording session left open", ErrInvalidState)
	}
	if s.TourSession != nil && s.TourSession.WeeksRemaining < 1 {
		return fmt.Errorf("%w: finished tour session left open", ErrInvalidState)
	}
	if s.Player.Flags.InStudio != (s.RecordingSession != nil) {
		return fmt.Errorf("%w: inStudio flag out of sync", ErrInvalidState)
	}
	if s.Player.Flags.OnTour != (s.TourSession != nil) {
		return fmt.Errorf("%w: onTour flag out of sync", ErrInvalidState)
	}

	active := 0
	for _, d := range s.LabelDeals {
		if !d.DealType.Valid() {
			return fmt.Errorf("%w: deal %s has type %q", ErrInvalidState, d.ID, d.DealType)
		}
		if d.RecoupDebt < 0 {
			return fmt.Errorf("%w: deal %s negative recoup debt", ErrInvalidState, d.ID)
		}
		if d.Status == DealActive {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("%w: %d active label deals", ErrInvalidState, active)
	}
	if s.Player.Flags.HasLabelDeal != (active == 1) {
		return fmt.Errorf("%w: hasLabelDeal flag out of sync", ErrInvalidState)
	}

	seen := map[string]bool{}
	for _, b := range s.Bandmates {
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate bandmate %s", ErrInvalidState, b.ID)
		}
		seen[b.ID] = true
		if !b.Role.Valid() || !b.Status.Valid() {
			return fmt.Errorf("%w: bandmate %s role=%q status=%q", ErrInvalidState, b.ID, b.Role, b.Status)
		}
	}
	for _, song := range s.Songs {
		if seen[song.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidState, song.ID)
		}
		seen[song.ID] = true
		if !song.StreamsTier.Valid() {
			return fmt.Errorf("%w: song %s tier %q", ErrInvalidState, song.ID, song.StreamsTier)
		}
	}
	for _, a := range s.Albums {
		for _, id := range a.SongIDs {
			if _, ok := s.Song(id); !ok {
				return fmt.Errorf("%w: album %s references missing song %s", ErrInvalidState, a.ID, id)
			}
		}
	}

	completed := map[string]bool{}
	for _, id := range s.CompletedArcIDs {
		completed[id] = true
	}
	activeArcs := map[string]bool{}
	for _, a := range s.ActiveArcs {
		if completed[a.ArcID] || activeArcs[a.ArcID] {
			return fmt.Errorf("%w: arc %s listed twice", ErrInvalidState, a.ArcID)
		}
		activeArcs[a.ArcID] = true
	}
	events := map[string]bool{}
	for _, id := range s.TriggeredEventIDs {
		if events[id] {
			return fmt.Errorf("%w: event %s triggered twice", ErrInvalidState, id)
		}
		events[id] = true
	}
	for _, n := range s.PendingNamings {
		if err := n.valid(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}
	if s.IsGameOver && s.GameOverReason == ReasonNone {
		return fmt.Errorf("%w: game over without reason", ErrInvalidState)
	}
	return nil
}

// Encode writes the persistence document for s.
func Encode(s *GameState) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Decode restores a state written by Encode and rejects documents that break
// any invariant.
func Decode(b []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if s.Version != StateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidState, s.Version)
	}
	if s.TemptationCooldowns == nil {
		s.TemptationCooldowns = map[string]int{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
