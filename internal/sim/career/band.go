package career

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gigcraft.ai/internal/sim/rng"
)

type Role string

const (
	RoleGuitar Role = "guitar"
	RoleBass   Role = "bass"
	RoleDrums  Role = "drums"
	RoleKeys   Role = "keys"
	RoleVocals Role = "vocals"
)

var Roles = []Role{RoleGuitar, RoleBass, RoleDrums, RoleKeys, RoleVocals}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

type BandmateStatus string

const (
	StatusActive BandmateStatus = "active"
	StatusFired  BandmateStatus = "fired"
	StatusQuit   BandmateStatus = "quit"
	StatusRehab  BandmateStatus = "rehab"
	StatusDead   BandmateStatus = "dead"
)

// Final reports whether no transition out of s exists.
func (s BandmateStatus) Final() bool {
	return s == StatusFired || s == StatusQuit || s == StatusDead
}

func (s BandmateStatus) Valid() bool {
	switch s {
	case StatusActive, StatusFired, StatusQuit, StatusRehab, StatusDead:
		return true
	}
	return false
}

const (
	RehabWeeks = 4

	viceRiskThreshold    = 70
	loyaltyQuitThreshold = 15
	quitChance           = 0.15
)

var (
	ErrUnknownBandmate = errors.New("unknown bandmate")
	ErrBandmateFinal   = errors.New("bandmate already left the band")
)

// Bandmates are never removed from the roster; they only change status.
type Bandmate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Role        Role           `json:"role"`
	Talent      int            `json:"talent"`
	Reliability int            `json:"reliability"`
	Vice        int            `json:"vice"`
	Loyalty     int            `json:"loyalty"`
	Status      BandmateStatus `json:"status"`
	JoinedWeek  int            `json:"joinedWeek"`
	LeftWeek    int            `json:"leftWeek,omitempty"`

	RehabWeeksRemaining int `json:"rehabWeeksRemaining,omitempty"`
}

// BandmateDelta is an effect aimed at one or more bandmates.
type BandmateDelta struct {
	Talent      int `json:"talent,omitempty"`
	Reliability int `json:"reliability,omitempty"`
	Vice        int `json:"vice,omitempty"`
	Loyalty     int `json:"loyalty,omitempty"`
}

func (b Bandmate) Apply(d BandmateDelta) Bandmate {
	b.Talent = Clamp(b.Talent + d.Talent)
	b.Reliability = Clamp(b.Reliability + d.Reliability)
	b.Vice = Clamp(b.Vice + d.Vice)
	b.Loyalty = Clamp(b.Loyalty + d.Loyalty)
	return b
}

// FameLevel is the order of magnitude of the fan base.
func FameLevel(fans int) float64 {
	if fans <= 0 {
		return 0
	}
	return math.Log10(float64(fans) + 1)
}

// GenerateBandmate rolls a new member. Better-known acts attract better
// players, who also bring bigger habits.
// An empty name falls back to a session-player placeholder.
func GenerateBandmate(r *rng.RNG, id string, role Role, fans int, name string, week int) Bandmate {
	fame := FameLevel(fans)
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Session %s player", role)
	}
	return Bandmate{
		ID:          id,
		Name:        name,
		Role:        role,
		Talent:      Clamp(30 + int(fame*8) + r.NextInt(0, 25)),
		Reliability: Clamp(r.NextInt(30, 90)),
		Vice:        Clamp(r.NextInt(5, 60) + int(fame*3)),
		Loyalty:     Clamp(r.NextInt(40, 80)),
		Status:      StatusActive,
		JoinedWeek:  week,
	}
}

func (s *GameState) Bandmate(id string) (*Bandmate, bool) {
	for i := range s.Bandmates {
		if s.Bandmates[i].ID == id {
			return &s.Bandmates[i], true
		}
	}
	return nil, false
}

// ActiveBandmates counts members currently playing.
func (s *GameState) ActiveBandmates() int {
	n := 0
	for _, b := range s.Bandmates {
		if b.Status == StatusActive {
			n++
		}
	}
	return n
}

// BandViceMax is the worst habit among active members.
func (s *GameState) BandViceMax() int {
	v := 0
	for _, b := range s.Bandmates {
		if b.Status == StatusActive && b.Vice > v {
			v = b.Vice
		}
	}
	return v
}

// BandLoyaltyMin is the lowest loyalty among active members (100 if none).
func (s *GameState) BandLoyaltyMin() int {
	v := StatMax
	for _, b := range s.Bandmates {
		if b.Status == StatusActive && b.Loyalty < v {
			v = b.Loyalty
		}
	}
	return v
}

// MissingRole returns the first role nobody active or in rehab covers.
func (s *GameState) MissingRole() (Role, bool) {
	covered := map[Role]bool{}
	for _, b := range s.Bandmates {
		if b.Status == StatusActive || b.Status == StatusRehab {
			covered[b.Role] = true
		}
	}
	for _, r := range Roles {
		if !covered[r] {
			return r, true
		}
	}
	return "", false
}

// Collapsed reports a roster that exists but has nobody left to play.
func (s *GameState) Collapsed() bool {
	if len(s.Bandmates) == 0 {
		return false
	}
	for _, b := range s.Bandmates {
		if b.Status == StatusActive || b.Status == StatusRehab {
			return false
		}
	}
	return true
}

func (s *GameState) FireBandmate(id string) error {
	b, ok := s.Bandmate(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBandmate, id)
	}
	if b.Status.Final() {
		return fmt.Errorf("%w: %s is %s", ErrBandmateFinal, b.Name, b.Status)
	}
	b.Status = StatusFired
	b.LeftWeek = s.Week
	b.RehabWeeksRemaining = 0
	return nil
}

// DriftLoyalty moves every active member's loyalty with the band's fortunes.
func (s *GameState) DriftLoyalty() {
	delta := 0
	if s.Player.Money < 0 {
		delta -= 2
	}
	if s.Player.Hype >= 60 {
		delta++
	}
	if delta == 0 {
		return
	}
	for i := range s.Bandmates {
		if s.Bandmates[i].Status == StatusActive {
			s.Bandmates[i].Loyalty = Clamp(s.Bandmates[i].Loyalty + delta)
		}
	}
}

// RiskCheck rolls weekly departures and returns a line per change. Members in
// rehab count down and come back.
func (s *GameState) RiskCheck(r *rng.RNG) []string {
	var notes []string
	for i := range s.Bandmates {
		b := &s.Bandmates[i]
		switch b.Status {
		case StatusRehab:
			b.RehabWeeksRemaining--
			if b.RehabWeeksRemaining <= 0 {
				b.RehabWeeksRemaining = 0
				b.Status = StatusActive
				b.Vice = Clamp(b.Vice - 25)
				notes = append(notes, fmt.Sprintf("%s is back from rehab.", b.Name))
			}
		case StatusActive:
			if b.Vice >= viceRiskThreshold {
				roll := r.Next()
				deathP := float64(b.Vice) / 5000
				rehabP := deathP + float64(b.Vice)/1000
				switch {
				case roll < deathP:
					b.Status = StatusDead
					b.LeftWeek = s.Week
					notes = append(notes, fmt.Sprintf("%s (%s) died.", b.Name, b.Role))
					continue
				case roll < rehabP:
					b.Status = StatusRehab
					b.RehabWeeksRemaining = RehabWeeks
					notes = append(notes, fmt.Sprintf("%s checked into rehab.", b.Name))
					continue
				}
			}
			if b.Loyalty <= loyaltyQuitThreshold && r.Chance(quitChance) {
				b.Status = StatusQuit
				b.LeftWeek = s.Week
				notes = append(notes, fmt.Sprintf("%s quit the band.", b.Name))
			}
		}
	}
	return notes
}
