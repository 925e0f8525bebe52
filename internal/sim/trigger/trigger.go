// Package trigger decides which narrative interrupts fire in a week. One
// condition evaluator serves events, arcs and temptations; events are chosen
// by weighted sampling, temptations by independent rolls in catalog order.
package trigger

import (
	"fmt"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/rng"
	"gigcraft.ai/internal/sim/tuning"
)

type Rules struct {
	Catalogs   *catalogs.Catalogs
	Tuning     tuning.Tuning
	Difficulty tuning.Difficulty
}

// EventChance is the weekly probability that a standalone event fires.
func (ru *Rules) EventChance(p career.Player) float64 {
	chance := ru.Tuning.Triggers.EventChance * ru.Difficulty.EventMultiplier
	if p.Addiction > 50 {
		chance += float64(p.Addiction-50) / 100 * 0.3
	}
	if p.Burnout > 60 {
		chance += float64(p.Burnout-60) / 100 * 0.2
	}
	return capChance(chance, ru.Tuning.Triggers.MaxChance)
}

// TemptationChance scales a temptation's base chance by difficulty and the
// player's addiction.
func (ru *Rules) TemptationChance(t *catalogs.Temptation, p career.Player) float64 {
	chance := t.Chance * ru.Difficulty.TemptationMultiplier * (1 + float64(p.Addiction)/100)
	return capChance(chance, ru.Tuning.Triggers.MaxChance)
}

// StandaloneEvents lists eligible events that no arc pools, in catalog order.
func (ru *Rules) StandaloneEvents(s *career.GameState, action string) []*catalogs.Event {
	var out []*catalogs.Event
	for i := range ru.Catalogs.Events.List {
		ev := &ru.Catalogs.Events.List[i]
		if _, pooled := ru.Catalogs.Events.ArcOf[ev.ID]; pooled {
			continue
		}
		if EventEligible(ev, s, action) {
			out = append(out, ev)
		}
	}
	return out
}

// StageEvents lists the eligible events of an arc's current stage pool.
func (ru *Rules) StageEvents(s *career.GameState, aa *career.ActiveArc, action string) []*catalogs.Event {
	arc, ok := ru.Catalogs.Arcs.ByID[aa.ArcID]
	if !ok || !stageInRange(arc, aa.CurrentStage) {
		return nil
	}
	var out []*catalogs.Event
	for _, id := range arc.Stages[aa.CurrentStage].EventIDs {
		ev, ok := ru.Catalogs.Events.ByID[id]
		if ok && EventEligible(ev, s, action) {
			out = append(out, ev)
		}
	}
	return out
}

func stageInRange(arc *catalogs.Arc, stage int) bool {
	return stage >= 0 && stage < len(arc.Stages)
}

func eventWeight(ev *catalogs.Event) float64 { return ev.Weight }

// PickEvent surfaces at most one event. Active arcs roll first, in the order
// they activated; if none surfaces an event the standalone gate is rolled.
func (ru *Rules) PickEvent(s *career.GameState, action string, r *rng.RNG) (*career.PendingEvent, string) {
	for i := range s.ActiveArcs {
		aa := &s.ActiveArcs[i]
		if !r.Chance(ru.Tuning.Triggers.ArcStageChance) {
			continue
		}
		pool := ru.StageEvents(s, aa, action)
		idx := SampleWeighted(r, pool, eventWeight)
		if idx < 0 {
			continue
		}
		ev := pool[idx]
		aa.StageEvents++
		return &career.PendingEvent{EventID: ev.ID, ArcID: aa.ArcID}, ev.Title
	}

	if !Gate(r, ru.EventChance(s.Player), ru.Tuning.Triggers.MaxChance) {
		return nil, ""
	}
	pool := ru.StandaloneEvents(s, action)
	idx := SampleWeighted(r, pool, eventWeight)
	if idx < 0 {
		return nil, ""
	}
	return &career.PendingEvent{EventID: pool[idx].ID}, pool[idx].Title
}

// DecrementCooldowns ticks every temptation cooldown down by one week.
func DecrementCooldowns(s *career.GameState) {
	for id, left := range s.TemptationCooldowns {
		if left <= 1 {
			delete(s.TemptationCooldowns, id)
			continue
		}
		s.TemptationCooldowns[id] = left - 1
	}
}

// RollTemptation rolls each eligible temptation once in catalog order and
// stops at the first hit, whose cooldown starts immediately.
func (ru *Rules) RollTemptation(s *career.GameState, r *rng.RNG) (*career.PendingTemptation, string) {
	for i := range ru.Catalogs.Temptations.List {
		t := &ru.Catalogs.Temptations.List[i]
		if s.TemptationCooldowns[t.ID] > 0 {
			continue
		}
		if !Holds(t.Conditions, s, nil) {
			continue
		}
		if !r.Chance(ru.TemptationChance(t, s.Player)) {
			continue
		}
		if t.Cooldown > 0 {
			if s.TemptationCooldowns == nil {
				s.TemptationCooldowns = map[string]int{}
			}
			s.TemptationCooldowns[t.ID] = t.Cooldown
		}
		return &career.PendingTemptation{TemptationID: t.ID}, t.Title
	}
	return nil, ""
}

// UpdateArcs aborts, advances and activates arcs for the current week and
// returns a note per transition.
func (ru *Rules) UpdateArcs(s *career.GameState) []string {
	var notes []string
	kept := s.ActiveArcs[:0]
	for _, aa := range s.ActiveArcs {
		// Saves can outlive catalog edits: unknown arcs and stages are dropped.
		arc, ok := ru.Catalogs.Arcs.ByID[aa.ArcID]
		if !ok || !stageInRange(arc, aa.CurrentStage) {
			continue
		}
		if arc.AbortConditions != nil && Holds(*arc.AbortConditions, s, &aa) {
			notes = append(notes, fmt.Sprintf("Storyline ended: %s.", arc.Title))
			continue
		}
		if Holds(advanceConditions(arc.Stages[aa.CurrentStage]), s, &aa) {
			if aa.CurrentStage == len(arc.Stages)-1 {
				s.CompletedArcIDs = append(s.CompletedArcIDs, aa.ArcID)
				notes = append(notes, fmt.Sprintf("Storyline complete: %s.", arc.Title))
				continue
			}
			aa.CurrentStage++
			aa.StageStartedWeek = s.Week
			aa.StageEvents = 0
		}
		kept = append(kept, aa)
	}
	s.ActiveArcs = kept

	if len(s.ActiveArcs) >= ru.Tuning.Triggers.MaxActiveArcs {
		return notes
	}
	for i := range ru.Catalogs.Arcs.List {
		arc := &ru.Catalogs.Arcs.List[i]
		if _, active := s.ActiveArc(arc.ID); active || s.ArcCompleted(arc.ID) {
			continue
		}
		if !Holds(arc.EntryConditions, s, nil) {
			continue
		}
		s.ActiveArcs = append(s.ActiveArcs, career.ActiveArc{
			ArcID:            arc.ID,
			StartedWeek:      s.Week,
			StageStartedWeek: s.Week,
		})
		notes = append(notes, fmt.Sprintf("New storyline: %s.", arc.Title))
		break
	}
	return notes
}

func advanceConditions(st catalogs.Stage) catalogs.Conditions {
	if st.AdvanceConditions != nil {
		return *st.AdvanceConditions
	}
	return catalogs.Min("stageEvents", 1)
}
