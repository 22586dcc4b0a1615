package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/resolver"
)

// CreatureResolver is the minimal resolver interface required by team
// selection. Using a small interface simplifies testing.
type CreatureResolver interface {
	ResolveCreature(ctx context.Context, identifier string) (*game.PokemonTemplate, error)
}

var (
	ErrNotInMatch      = errors.New("player not part of match")
	ErrWrongPhase      = errors.New("match is not selecting teams")
	ErrAlreadySelected = errors.New("team already selected")
	ErrInvalidTeamSize = errors.New("team must contain exactly three pokemon")
	ErrTeamResolution  = errors.New("failed to resolve team")
)

// SelectOutcome reports what team submission changed.
type SelectOutcome struct {
	// BothReady is true when this submission completed the selection
	// phase and the battle has started.
	BothReady bool
	// Snapshot is the battle-start snapshot; valid only when BothReady.
	Snapshot game.Snapshot
}

// SelectTeam validates and stores a player's team of three Pokémon. All
// three identifiers are resolved concurrently; if any resolution fails the
// submission fails as a whole and nothing is stored, so the player can
// resubmit. When the second slot completes, the match transitions to
// battling: both active indexes reset to 0 and the faster active Pokémon
// moves first (speed ties favor player one).
func SelectTeam(ctx context.Context, res CreatureResolver, m *game.Match, sessionID string, teamIDs []int) (SelectOutcome, error) {
	m.Mu.Lock()
	if m.Phase != game.PhaseSelecting {
		m.Mu.Unlock()
		return SelectOutcome{}, ErrWrongPhase
	}
	idx := m.SlotOf(sessionID)
	if idx < 0 {
		m.Mu.Unlock()
		return SelectOutcome{}, ErrNotInMatch
	}
	slot := m.Players[idx]
	if slot.HasSelected || slot.Resolving {
		m.Mu.Unlock()
		return SelectOutcome{}, ErrAlreadySelected
	}
	if len(teamIDs) != constants.TeamSize {
		m.Mu.Unlock()
		return SelectOutcome{}, ErrInvalidTeamSize
	}
	slot.Resolving = true
	m.Mu.Unlock()

	templates := make([]*game.PokemonTemplate, constants.TeamSize)
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range teamIDs {
		i, id := i, id
		g.Go(func() error {
			t, err := res.ResolveCreature(gctx, strconv.Itoa(id))
			if err != nil {
				return fmt.Errorf("pokemon %d: %w", id, err)
			}
			templates[i] = t
			return nil
		})
	}
	err := g.Wait()

	m.Mu.Lock()
	defer m.Mu.Unlock()
	slot.Resolving = false

	if err != nil {
		// Partial teams are never stored; the player must resubmit.
		return SelectOutcome{}, fmt.Errorf("%w: %v", ErrTeamResolution, err)
	}
	if m.Phase != game.PhaseSelecting {
		// The match ended (for example a disconnect) while resolution was
		// in flight. Report an error without touching shared state.
		return SelectOutcome{}, ErrWrongPhase
	}

	team := make([]*game.Pokemon, 0, constants.TeamSize)
	for _, t := range templates {
		inst := resolver.Instantiate(t)
		if inst == nil {
			return SelectOutcome{}, ErrTeamResolution
		}
		team = append(team, inst)
	}
	slot.Team = team
	slot.ActiveIndex = 0
	slot.HasSelected = true

	if !m.Players[0].HasSelected || !m.Players[1].HasSelected {
		return SelectOutcome{}, nil
	}

	// Both sides are ready: start the battle.
	m.Phase = game.PhaseBattling
	m.TurnIndex = firstTurn(m)
	first := m.Players[m.TurnIndex]
	m.Log = []string{
		"Battle started!",
		first.Username + "'s " + first.Active().Name + " moves first.",
	}
	return SelectOutcome{BothReady: true, Snapshot: game.BuildSnapshot(m)}, nil
}

// firstTurn compares the active Pokémon's speed. A tie favors the player
// who joined the match first.
func firstTurn(m *game.Match) int {
	if m.Players[1].Active().Stats.Speed > m.Players[0].Active().Stats.Speed {
		return 1
	}
	return 0
}
