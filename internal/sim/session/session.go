// Package session runs the multi-week recording and touring processes. Each
// advance consumes one week; the result lands in the catalogue or the bank
// when weeksRemaining reaches zero.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/economy"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/tuning"
)

const (
	MinAlbumSongs = 3
	MaxAlbumSongs = 14
	MaxWeeks      = 12
)

var (
	ErrSessionActive   = errors.New("a session is already running")
	ErrNoSession       = errors.New("no session running")
	ErrGigBooked       = errors.New("a gig is booked")
	ErrNotEnoughSongs  = errors.New("not enough songs")
	ErrUnknownSong     = errors.New("song not available for recording")
	ErrBadWeeks        = errors.New("invalid session length")
	ErrTourRequirement = errors.New("tour requirements not met")
	ErrCannotAfford    = errors.New("cannot afford")
)

type RecordingPlan struct {
	Kind       career.RecordingKind `json:"kind"`
	Studio     string               `json:"studio"`
	Weeks      int                  `json:"weeks"`
	SongIDs    []string             `json:"songIds,omitempty"`
	AlbumTitle string               `json:"albumTitle,omitempty"`
}

type TourPlan struct {
	Size string `json:"size"`
	Name string `json:"name,omitempty"`
}

type Result struct {
	Text      string
	Completed bool
	AlbumID   string
	Shows     []economy.GigResult
}

func checkFree(s *career.GameState) error {
	if s.InSession() {
		return ErrSessionActive
	}
	if s.UpcomingGig != nil {
		return ErrGigBooked
	}
	return nil
}

// StartRecording books studio time. A plain recording needs enough finished
// songs; write-and-record sessions write new material as they go. When no
// song ids are given every loose song is taken.
func StartRecording(s *career.GameState, plan RecordingPlan, tu tuning.Tuning, names catalogs.Names, r *rng.RNG) error {
	if err := checkFree(s); err != nil {
		return err
	}
	studio, err := tu.Studio(plan.Studio)
	if err != nil {
		return err
	}
	if plan.Weeks == 0 {
		plan.Weeks = studio.MinWeeks
	}
	if plan.Weeks < studio.MinWeeks || plan.Weeks > MaxWeeks {
		return fmt.Errorf("%w: %d weeks at %s (min %d, max %d)", ErrBadWeeks, plan.Weeks, studio.Name, studio.MinWeeks, MaxWeeks)
	}
	if s.Player.Money < studio.CostPerWeek {
		return fmt.Errorf("%w: %s needs $%s up front", ErrCannotAfford, studio.Name, humanize.Comma(int64(studio.CostPerWeek)))
	}

	ids := plan.SongIDs
	if len(ids) == 0 {
		for _, song := range s.LooseSongs() {
			ids = append(ids, song.ID)
		}
	}
	if len(ids) > MaxAlbumSongs {
		ids = ids[:MaxAlbumSongs]
	}
	for _, id := range ids {
		song, ok := s.Song(id)
		if !ok || song.Released || song.AlbumID != "" {
			return fmt.Errorf("%w: %s", ErrUnknownSong, id)
		}
	}
	switch plan.Kind {
	case career.RecordingAlbum:
		if len(ids) < MinAlbumSongs {
			return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSongs, len(ids), MinAlbumSongs)
		}
	case career.RecordingWriteAndRecord:
	default:
		return fmt.Errorf("unknown recording kind %q", plan.Kind)
	}

	title := plan.AlbumTitle
	if title == "" {
		title = names.AlbumTitle(r)
	}
	s.RecordingSession = &career.RecordingSession{
		ID:              s.NextSessionID(),
		Kind:            plan.Kind,
		Studio:          studio.ID,
		AlbumTitle:      title,
		SongIDs:         slices.Clone(ids),
		WeeksRequired:   plan.Weeks,
		WeeksRemaining:  plan.Weeks,
		ProductionValue: studio.ProductionValue,
		CostPerWeek:     studio.CostPerWeek,
		StartedWeek:     s.Week,
	}
	s.Player.Flags.InStudio = true
	return nil
}

// StartTour commits to a tour. Requirements are checked here only; once on
// the road the tour runs to the end unless abandoned.
func StartTour(s *career.GameState, plan TourPlan, tu tuning.Tuning) error {
	if err := checkFree(s); err != nil {
		return err
	}
	size, err := tu.Tour(plan.Size)
	if err != nil {
		return err
	}
	switch {
	case s.Player.Fans < size.MinFans:
		return fmt.Errorf("%w: %s needs %s fans", ErrTourRequirement, size.Name, humanize.Comma(int64(size.MinFans)))
	case s.Player.Money < size.MinMoney:
		return fmt.Errorf("%w: %s needs $%s in the bank", ErrTourRequirement, size.Name, humanize.Comma(int64(size.MinMoney)))
	case size.RequiresDeal && !s.Player.Flags.HasLabelDeal:
		return fmt.Errorf("%w: %s needs label backing", ErrTourRequirement, size.Name)
	}
	name := plan.Name
	if name == "" {
		name = size.Name
	}
	s.TourSession = &career.TourSession{
		ID:             s.NextSessionID(),
		Name:           name,
		Size:           size.ID,
		WeeksRequired:  size.Weeks,
		WeeksRemaining: size.Weeks,
		ShowsPerWeek:   size.ShowsPerWeek,
		Capacity:       size.Capacity,
		Guarantee:      size.Guarantee,
		CostPerWeek:    size.CostPerWeek,
		StartedWeek:    s.Week,
	}
	s.Player.Flags.OnTour = true
	return nil
}
