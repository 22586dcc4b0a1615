package service

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/muizather/pokemon/internal/game"
)

type stubRecorder struct {
	wins []string
}

func (s *stubRecorder) RecordWin(username string) error {
	s.wins = append(s.wins, username)
	return nil
}

// fixedCalc applies the damage formula with the variance roll pinned to 1.0.
func fixedCalc(attacker, defender *game.Pokemon, move game.Move) int {
	return computeDamage(attacker.Stats.Attack, defender.Stats.Defense, move.Power, 1.0)
}

func battler(name string, hp, attack, defense, speed int, moves ...game.Move) *game.Pokemon {
	return &game.Pokemon{
		PokemonTemplate: game.PokemonTemplate{
			Name:  name,
			Stats: game.Stats{HP: hp, Attack: attack, Defense: defense, Speed: speed},
			Moves: moves,
		},
		CurrentHP: hp,
		MaxHP:     hp,
	}
}

func newBattlingMatch() *game.Match {
	tackle := game.Move{Name: "Tackle", Power: 40}
	growl := game.Move{Name: "Growl", Power: 0}
	return &game.Match{
		ID:    "m1",
		Phase: game.PhaseBattling,
		Players: [2]*game.PlayerSlot{
			{
				SessionID:   "s1",
				Username:    "Ash",
				HasSelected: true,
				Team: []*game.Pokemon{
					battler("Pikachu", 35, 80, 40, 90, tackle, growl),
					battler("Squirtle", 44, 48, 65, 43, tackle),
					battler("Pidgey", 40, 45, 40, 56, tackle),
				},
			},
			{
				SessionID:   "s2",
				Username:    "Misty",
				HasSelected: true,
				Team: []*game.Pokemon{
					battler("Staryu", 30, 45, 50, 85, tackle),
					battler("Goldeen", 45, 67, 60, 63, tackle),
					battler("Psyduck", 50, 52, 48, 55, tackle),
				},
			},
		},
		TurnIndex: 0,
	}
}

func TestPerformAction_RejectsOutOfTurn(t *testing.T) {
	m := newBattlingMatch()
	_, err := PerformAction(nil, fixedCalc, m, "s2", Action{Type: "attack", MoveName: "Tackle"})
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestPerformAction_RejectsUnknownMove(t *testing.T) {
	m := newBattlingMatch()
	_, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Hyper Beam"})
	if !errors.Is(err, ErrUnknownMove) {
		t.Fatalf("expected ErrUnknownMove, got %v", err)
	}
	if m.TurnIndex != 0 {
		t.Fatal("rejected action must not change state")
	}
}

func TestPerformAction_RejectsMalformedAction(t *testing.T) {
	m := newBattlingMatch()
	_, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "dance"})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestPerformAction_AttackDealsDamageAndPassesTurn(t *testing.T) {
	m := newBattlingMatch()
	out, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Tackle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// floor((80/50)*40/8+2) = floor(10) = 10
	target := m.Players[1].Active()
	if target.CurrentHP != 20 {
		t.Fatalf("expected 10 damage (HP 20), got HP %d", target.CurrentHP)
	}
	if m.TurnIndex != 1 {
		t.Fatalf("turn must pass to defender, got %d", m.TurnIndex)
	}
	if out.Finished || out.ForcedSwitchID != "" {
		t.Fatalf("unexpected outcome flags: %+v", out)
	}
	if len(out.Snapshot.Log) == 0 {
		t.Fatal("expected narration in the snapshot")
	}
}

func TestPerformAction_StatusMoveDealsNothing(t *testing.T) {
	m := newBattlingMatch()
	_, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Growl"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hp := m.Players[1].Active().CurrentHP; hp != 30 {
		t.Fatalf("status move must deal 0 damage, HP=%d", hp)
	}
	if m.TurnIndex != 1 {
		t.Fatal("status move still ends the turn")
	}
}

func TestPerformAction_FaintForcesSwitch(t *testing.T) {
	m := newBattlingMatch()
	m.Players[1].Team[0].CurrentHP = 5

	out, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Tackle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := m.Players[1].Team[0]
	if !target.Fainted || target.CurrentHP != 0 {
		t.Fatalf("expected faint with HP floored at 0, got %+v", target)
	}
	if !m.Players[1].MustSwitch {
		t.Fatal("defender with standing teammates must be flagged mustSwitch")
	}
	if m.TurnIndex != 1 {
		t.Fatal("turn must pass to the fainted side")
	}
	if out.ForcedSwitchID != "s2" {
		t.Fatalf("expected forced switch for s2, got %q", out.ForcedSwitchID)
	}

	// Attacking under a forced-switch obligation is illegal.
	if _, err := PerformAction(nil, fixedCalc, m, "s2", Action{Type: "attack", MoveName: "Tackle"}); !errors.Is(err, ErrMustSwitch) {
		t.Fatalf("expected ErrMustSwitch, got %v", err)
	}

	// Switching clears the obligation and ends the turn.
	if _, err := PerformAction(nil, fixedCalc, m, "s2", Action{Type: "switch", SwitchTo: 1}); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if m.Players[1].MustSwitch {
		t.Fatal("switch must clear the obligation")
	}
	if m.Players[1].ActiveIndex != 1 {
		t.Fatalf("expected active index 1, got %d", m.Players[1].ActiveIndex)
	}
	if m.TurnIndex != 0 {
		t.Fatal("switch must pass the turn")
	}
}

func TestPerformAction_LastFaintFinishesMatch(t *testing.T) {
	m := newBattlingMatch()
	rec := &stubRecorder{}
	// Only one standing defender left, at 1 HP.
	m.Players[1].Team[1].Fainted = true
	m.Players[1].Team[1].CurrentHP = 0
	m.Players[1].Team[2].Fainted = true
	m.Players[1].Team[2].CurrentHP = 0
	m.Players[1].Team[0].CurrentHP = 1

	out, err := PerformAction(rec, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Tackle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Finished || out.WinnerID != "s1" || out.WinnerName != "Ash" {
		t.Fatalf("expected Ash to win, got %+v", out)
	}
	if m.Phase != game.PhaseFinished {
		t.Fatalf("expected finished phase, got %v", m.Phase)
	}
	if len(rec.wins) != 1 || rec.wins[0] != "Ash" {
		t.Fatalf("expected exactly one recorded win for Ash, got %v", rec.wins)
	}
}

func TestPerformAction_SwitchValidation(t *testing.T) {
	m := newBattlingMatch()
	m.Players[0].Team[1].Fainted = true

	cases := []struct {
		name   string
		target int
	}{
		{"out of range", 9},
		{"negative", -1},
		{"fainted target", 1},
		{"already active", 0},
	}
	for _, tc := range cases {
		if _, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "switch", SwitchTo: tc.target}); !errors.Is(err, ErrInvalidSwitch) {
			t.Errorf("%s: expected ErrInvalidSwitch, got %v", tc.name, err)
		}
	}
	if m.Players[0].ActiveIndex != 0 || m.TurnIndex != 0 {
		t.Fatal("rejected switches must not change state")
	}
}

func TestPerformAction_RejectedBeforeBattle(t *testing.T) {
	m := newBattlingMatch()
	m.Phase = game.PhaseSelecting
	if _, err := PerformAction(nil, fixedCalc, m, "s1", Action{Type: "attack", MoveName: "Tackle"}); !errors.Is(err, ErrNotBattling) {
		t.Fatalf("expected ErrNotBattling, got %v", err)
	}
}

func TestNewDamageCalc_WithinBounds(t *testing.T) {
	calc := NewDamageCalc(rand.New(rand.NewSource(42)))
	attacker := battler("A", 35, 80, 40, 90)
	defender := battler("D", 35, 40, 50, 40)
	move := game.Move{Name: "Tackle", Power: 40}

	// base = floor((80/50)*40/8+2) = 10, so damage must land in [8, 10].
	for i := 0; i < 200; i++ {
		dmg := calc(attacker, defender, move)
		if dmg < 8 || dmg > 10 {
			t.Fatalf("damage %d out of [8,10]", dmg)
		}
	}
}
