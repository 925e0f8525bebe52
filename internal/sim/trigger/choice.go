package trigger

import (
	"errors"
	"fmt"
	"strings"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/rng"
)

var (
	ErrNoPendingEvent      = errors.New("no event pending")
	ErrNoPendingTemptation = errors.New("no temptation pending")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrUnknownTemptation   = errors.New("unknown temptation")
	ErrUnknownChoice       = errors.New("unknown choice")
)

// ResolveEvent applies choiceID to the pending event, records the event as
// triggered and clears the pending slot.
func (ru *Rules) ResolveEvent(s *career.GameState, choiceID string, r *rng.RNG) (string, error) {
	if s.PendingEvent == nil {
		return "", ErrNoPendingEvent
	}
	ev, ok := ru.Catalogs.Events.ByID[s.PendingEvent.EventID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, s.PendingEvent.EventID)
	}
	ch, ok := ev.Choice(choiceID)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownChoice, ev.ID, choiceID)
	}
	text := ru.ApplyChoice(s, ch, r)
	s.RecordEvent(ev.ID)
	s.PendingEvent = nil
	return fmt.Sprintf("%s: %s", ev.Title, text), nil
}

func (ru *Rules) ResolveTemptation(s *career.GameState, choiceID string, r *rng.RNG) (string, error) {
	if s.PendingTemptation == nil {
		return "", ErrNoPendingTemptation
	}
	t, ok := ru.Catalogs.Temptations.ByID[s.PendingTemptation.TemptationID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemptation, s.PendingTemptation.TemptationID)
	}
	ch, ok := t.Choice(choiceID)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownChoice, t.ID, choiceID)
	}
	text := ru.ApplyChoice(s, ch, r)
	s.PendingTemptation = nil
	return fmt.Sprintf("%s: %s", t.Title, text), nil
}

// ApplyChoice applies a choice's effects, its risk roll, bandmate effects,
// deal offer and flags to s. The returned text describes what happened.
func (ru *Rules) ApplyChoice(s *career.GameState, ch *catalogs.Choice, r *rng.RNG) string {
	var parts []string
	if ch.ResultText != "" {
		parts = append(parts, ch.ResultText)
	} else {
		parts = append(parts, ch.Text+".")
	}

	delta := ch.Effects
	if ch.Risk != nil {
		if r.Chance(ch.Risk.Chance) {
			delta = delta.Plus(ch.Risk.SuccessEffects)
			if ch.Risk.SuccessText != "" {
				parts = append(parts, ch.Risk.SuccessText)
			}
		} else {
			delta = delta.Plus(ch.Risk.FailureEffects)
			if ch.Risk.FailureText != "" {
				parts = append(parts, ch.Risk.FailureText)
			}
		}
	}
	s.Player = s.Player.Apply(delta)

	if ch.BandmateEffects != nil {
		if note := applyBandmateEffect(s, *ch.BandmateEffects, r); note != "" {
			parts = append(parts, note)
		}
	}
	if ch.DealOffer != nil {
		parts = append(parts, ru.signDeal(s, *ch.DealOffer))
	}
	if ch.GrantsManager {
		s.Player.Flags.HasManager = true
	}
	if !delta.IsZero() {
		parts = append(parts, "("+delta.String()+")")
	}
	return strings.Join(parts, " ")
}

func applyBandmateEffect(s *career.GameState, eff catalogs.BandmateEffect, r *rng.RNG) string {
	var active []int
	for i, b := range s.Bandmates {
		if b.Status == career.StatusActive {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		return ""
	}
	var targets []int
	switch eff.Target {
	case catalogs.TargetAll:
		targets = active
	case catalogs.TargetRandom:
		targets = []int{active[r.Pick(len(active))]}
	case catalogs.TargetWorstVice:
		best := active[0]
		for _, i := range active[1:] {
			if s.Bandmates[i].Vice > s.Bandmates[best].Vice {
				best = i
			}
		}
		targets = []int{best}
	case catalogs.TargetLeastLoyal:
		best := active[0]
		for _, i := range active[1:] {
			if s.Bandmates[i].Loyalty < s.Bandmates[best].Loyalty {
				best = i
			}
		}
		targets = []int{best}
	default:
		return ""
	}
	names := make([]string, 0, len(targets))
	for _, i := range targets {
		s.Bandmates[i] = s.Bandmates[i].Apply(eff.Delta)
		names = append(names, s.Bandmates[i].Name)
	}
	return fmt.Sprintf("Affected: %s.", strings.Join(names, ", "))
}

func (ru *Rules) signDeal(s *career.GameState, offer catalogs.DealOffer) string {
	if _, ok := s.ActiveDeal(); ok {
		return "You are already signed; the offer lapses."
	}
	terms := ru.Tuning.Deals[string(offer.DealType)]
	s.LabelDeals = append(s.LabelDeals, career.LabelDeal{
		ID:                   s.NextDealID(),
		LabelName:            offer.LabelName,
		DealType:             offer.DealType,
		Advance:              offer.Advance,
		RecoupDebt:           offer.Advance,
		StreamingRoyaltyRate: terms.StreamingRoyaltyRate,
		MerchCutRate:         terms.MerchCutRate,
		TouringCutRate:       terms.TouringCutRate,
		Status:               career.DealActive,
		SignedWeek:           s.Week,
	})
	s.Player.Money += offer.Advance
	s.Player.Flags.HasLabelDeal = true
	return fmt.Sprintf("Signed a %s deal with %s.", offer.DealType, offer.LabelName)
}
