package service

import (
	"errors"
	"strconv"

	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/logging"
)

// WinRecorder receives the winner's username when a match finishes. The
// match core performs no other leaderboard writes.
type WinRecorder interface {
	RecordWin(username string) error
}

var (
	ErrNotBattling   = errors.New("battle has not started")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrMustSwitch    = errors.New("you must switch to another pokemon")
	ErrUnknownMove   = errors.New("active pokemon does not know that move")
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidSwitch = errors.New("invalid switch target")
)

// Action is a player's battle action for one turn.
type Action struct {
	Type     string `json:"type"`
	MoveName string `json:"moveName,omitempty"`
	SwitchTo int    `json:"pokemonIndex,omitempty"`
}

// ActionOutcome describes the state change produced by a legal action.
type ActionOutcome struct {
	Snapshot game.Snapshot
	// Finished is true when the action ended the match.
	Finished   bool
	WinnerID   string
	WinnerName string
	// ForcedSwitchID names the session now obliged to switch, if any.
	ForcedSwitchID string
}

// PerformAction applies one battle action to the match under its mutex.
// Illegal actions return an error without any state change. A faint that
// leaves the defender with standing teammates passes the turn to the
// defender under a forced-switch obligation; a faint of the last standing
// Pokémon finishes the match and records the attacker's win.
func PerformAction(recorder WinRecorder, calc DamageCalc, m *game.Match, sessionID string, action Action) (ActionOutcome, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Phase != game.PhaseBattling {
		return ActionOutcome{}, ErrNotBattling
	}
	idx := m.SlotOf(sessionID)
	if idx < 0 {
		return ActionOutcome{}, ErrNotInMatch
	}
	if idx != m.TurnIndex {
		return ActionOutcome{}, ErrNotYourTurn
	}

	switch action.Type {
	case constants.ActionAttack:
		return performAttack(recorder, calc, m, idx, action.MoveName)
	case constants.ActionSwitch:
		return performSwitch(m, idx, action.SwitchTo)
	default:
		return ActionOutcome{}, ErrInvalidAction
	}
}

func performAttack(recorder WinRecorder, calc DamageCalc, m *game.Match, idx int, moveName string) (ActionOutcome, error) {
	attacker := m.Players[idx]
	defender := m.Players[1-idx]

	if attacker.MustSwitch {
		return ActionOutcome{}, ErrMustSwitch
	}
	active := attacker.Active()
	if active == nil || active.Fainted {
		return ActionOutcome{}, ErrMustSwitch
	}
	move, ok := active.HasMove(moveName)
	if !ok {
		return ActionOutcome{}, ErrUnknownMove
	}

	target := defender.Active()
	dmg := calc(active, target, move)
	target.ApplyDamage(dmg)

	m.Log = []string{attacker.Username + "'s " + active.Name + " used " + move.Name + "!"}
	if move.Power == 0 {
		m.Log = append(m.Log, "It had no effect.")
	} else {
		m.Log = append(m.Log, "It dealt "+strconv.Itoa(dmg)+" damage.")
	}

	out := ActionOutcome{}
	if target.Fainted {
		m.Log = append(m.Log, defender.Username+"'s "+target.Name+" fainted!")
		if defender.HasStanding() {
			defender.MustSwitch = true
			m.TurnIndex = 1 - idx
			m.Log = append(m.Log, defender.Username+" must switch to another Pokémon.")
			out.ForcedSwitchID = defender.SessionID
		} else {
			m.Phase = game.PhaseFinished
			m.Log = append(m.Log, attacker.Username+" wins the battle!")
			out.Finished = true
			out.WinnerID = attacker.SessionID
			out.WinnerName = attacker.Username
			if recorder != nil {
				if err := recorder.RecordWin(attacker.Username); err != nil {
					logging.Error("failed to record win", err, logging.Fields{
						constants.LogFieldMatchID:  m.ID,
						constants.LogFieldUsername: attacker.Username,
					})
				}
			}
		}
	} else {
		m.TurnIndex = 1 - idx
	}

	out.Snapshot = game.BuildSnapshot(m)
	return out, nil
}

func performSwitch(m *game.Match, idx, target int) (ActionOutcome, error) {
	slot := m.Players[idx]
	if target < 0 || target >= len(slot.Team) {
		return ActionOutcome{}, ErrInvalidSwitch
	}
	if slot.Team[target].Fainted {
		return ActionOutcome{}, ErrInvalidSwitch
	}
	if target == slot.ActiveIndex {
		return ActionOutcome{}, ErrInvalidSwitch
	}

	slot.ActiveIndex = target
	slot.MustSwitch = false
	// A switch always ends the turn and never triggers a faint check.
	m.TurnIndex = 1 - idx
	m.Log = []string{slot.Username + " switched to " + slot.Active().Name + "!"}

	return ActionOutcome{Snapshot: game.BuildSnapshot(m)}, nil
}
