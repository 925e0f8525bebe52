package protocol

import (
	"errors"

	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/session"
	"gigcraft.ai/internal/sim/trigger"
	"gigcraft.ai/internal/sim/tuning"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Run routing.
	ErrRunNotFound = "E_RUN_NOT_FOUND"
	ErrRunBusy     = "E_RUN_BUSY"

	// Rule/command layer.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrGameOver       = "E_GAME_OVER"
	ErrPendingChoice  = "E_PENDING_CHOICE"
	ErrUnknownAction  = "E_UNKNOWN_ACTION"
	ErrUnavailable    = "E_UNAVAILABLE"
	ErrNoVenue        = "E_NO_VENUE"
	ErrNoResource     = "E_NO_RESOURCE"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrNothingPending = "E_NOTHING_PENDING"
	ErrConflict       = "E_CONFLICT"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRunNotFound:     {},
	ErrRunBusy:         {},
	ErrBadRequest:      {},
	ErrGameOver:        {},
	ErrPendingChoice:   {},
	ErrUnknownAction:   {},
	ErrUnavailable:     {},
	ErrNoVenue:         {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrNothingPending:  {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps an engine error onto the wire code a client sees.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrGameOver):
		return ErrGameOver
	case errors.Is(err, engine.ErrBlocked):
		return ErrPendingChoice
	case errors.Is(err, engine.ErrUnknownAction):
		return ErrUnknownAction
	case errors.Is(err, engine.ErrUnavailable),
		errors.Is(err, session.ErrTourRequirement),
		errors.Is(err, session.ErrGigBooked):
		return ErrUnavailable
	case errors.Is(err, engine.ErrNoVenue):
		return ErrNoVenue
	case errors.Is(err, session.ErrCannotAfford),
		errors.Is(err, session.ErrNotEnoughSongs):
		return ErrNoResource
	case errors.Is(err, engine.ErrNoNaming),
		errors.Is(err, engine.ErrWrongTrigger),
		errors.Is(err, session.ErrUnknownSong),
		errors.Is(err, career.ErrUnknownBandmate),
		errors.Is(err, career.ErrBandmateFinal),
		errors.Is(err, trigger.ErrUnknownChoice):
		return ErrInvalidTarget
	case errors.Is(err, engine.ErrNothingPending),
		errors.Is(err, session.ErrNoSession):
		return ErrNothingPending
	case errors.Is(err, session.ErrSessionActive):
		return ErrConflict
	case errors.Is(err, engine.ErrBadCommand),
		errors.Is(err, engine.ErrBadTitle),
		errors.Is(err, session.ErrBadWeeks),
		errors.Is(err, tuning.ErrUnknownDifficulty),
		errors.Is(err, tuning.ErrUnknownStudio),
		errors.Is(err, tuning.ErrUnknownTour):
		return ErrBadRequest
	default:
		return ErrInternal
	}
}
