// Package engine is the public face of the simulation. Every operation takes
// a state snapshot and returns a new one; the input is never modified, and on
// error it is the state the caller should keep showing.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/trigger"
	"gigcraft.ai/internal/sim/tuning"
)

var (
	ErrGameOver       = errors.New("game is over")
	ErrBlocked        = errors.New("a choice is pending")
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnavailable    = errors.New("action not available")
	ErrNoVenue        = errors.New("no venue will book you")
	ErrNoNaming       = errors.New("nothing awaiting that title")
	ErrBadTitle       = errors.New("invalid title")
	ErrWrongTrigger   = errors.New("choice does not match the pending trigger")
	ErrNothingPending = errors.New("no choice pending")
	ErrBadCommand     = errors.New("malformed command")
)

const maxTitleLen = 60

type Engine struct {
	tu   tuning.Tuning
	cats *catalogs.Catalogs
}

func New(tu tuning.Tuning, cats *catalogs.Catalogs) (*Engine, error) {
	if cats == nil {
		return nil, errors.New("nil catalogs")
	}
	if err := tu.Validate(); err != nil {
		return nil, err
	}
	return &Engine{tu: tu, cats: cats}, nil
}

func (e *Engine) Tuning() tuning.Tuning        { return e.tu }
func (e *Engine) Catalogs() *catalogs.Catalogs { return e.cats }

// IsAvailable is actions.IsAvailable plus the checks that need the catalogs:
// BOOK_GIG is only offered when some venue would take the booking.
func (e *Engine) IsAvailable(id actions.ID, s *career.GameState) bool {
	if !actions.IsAvailable(id, s) {
		return false
	}
	if id == actions.BookGig {
		_, ok := e.venueFor(s.Player.Fans, s.Player.Money)
		return ok
	}
	return true
}

// Available lists the actions ResolveTurn will accept for s, in catalog order.
func (e *Engine) Available(s *career.GameState) []actions.ID {
	var out []actions.ID
	for _, id := range actions.Available(s) {
		if e.IsAvailable(id, s) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) rules(s *career.GameState) (*trigger.Rules, tuning.Difficulty, error) {
	d, err := e.tu.Difficulty(s.Difficulty)
	if err != nil {
		return nil, tuning.Difficulty{}, err
	}
	return &trigger.Rules{Catalogs: e.cats, Tuning: e.tu, Difficulty: d}, d, nil
}

type NewGameOptions struct {
	RunID      string
	Seed       int64
	Difficulty string
	PlayerName string
	BandName   string
	// RandomSeed draws a seed from crypto/rand, ignoring Seed.
	RandomSeed bool
}

func NewRunID() string { return uuid.NewString() }

// NewGame rolls a fresh run. The starting player and first bandmate come from
// the seed, so the same options always produce the same state.
func (e *Engine) NewGame(opts NewGameOptions) (*career.GameState, error) {
	if opts.Difficulty == "" {
		opts.Difficulty = "normal"
	}
	d, err := e.tu.Difficulty(opts.Difficulty)
	if err != nil {
		return nil, err
	}
	if opts.RandomSeed {
		seed, err := rng.NewSeed()
		if err != nil {
			return nil, err
		}
		opts.Seed = seed
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}

	r := rng.ForTurn(opts.Seed, 0, rng.SaltNewGame)
	name := strings.TrimSpace(opts.PlayerName)
	if name == "" {
		name = e.cats.Names.PersonName(r)
	}
	band := strings.TrimSpace(opts.BandName)
	if band == "" {
		band = "The " + e.cats.Names.SongTitle(r)
	}
	p := career.Player{
		Name:             name,
		BandName:         band,
		Money:            d.StartingMoney,
		Fans:             r.NextInt(20, 80),
		Followers:        r.NextInt(50, 200),
		Health:           80,
		Skill:            r.NextInt(15, 30),
		Talent:           r.NextInt(30, 70),
		Hype:             10,
		Cred:             20,
		Stability:        70,
		Image:            30,
		IndustryGoodwill: 20,
	}
	s := career.NewState(opts.RunID, opts.Seed, opts.Difficulty, p)
	s.Bandmates = append(s.Bandmates, career.GenerateBandmate(r, s.NextBandmateID(), career.RoleDrums, p.Fans, e.cats.Names.PersonName(r), s.Week))
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	return s, nil
}

// Digest is the sha256 of the encoded state. Replays compare it turn by turn.
func Digest(s *career.GameState) (string, error) {
	b, err := career.Encode(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
