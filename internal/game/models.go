package game

import (
	"sync"

	"gorm.io/gorm"
)

// Phase is the lifecycle stage of a match. Phases only move forward.
type Phase string

const (
	PhaseFormed    Phase = "formed"
	PhaseSelecting Phase = "selecting"
	PhaseBattling  Phase = "battling"
	PhaseFinished  Phase = "finished"
)

// Stats holds the base battle stats taken from the species record.
type Stats struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Move is a resolved move with its damage power. Power 0 marks a
// non-damaging (status) move.
type Move struct {
	Name  string `json:"name"`
	Power int    `json:"power"`
}

// PokemonTemplate is the shared, immutable description of a species as
// resolved from the remote data source. Templates live in the resource
// cache and must never be mutated; battle state belongs on Pokemon.
type PokemonTemplate struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Stats   Stats  `json:"stats"`
	Sprite  string `json:"sprite"`
	Moves   []Move `json:"moves"`
	Ability string `json:"ability"`
}

// Clone returns an independent deep copy of the template so callers can
// hold it without aliasing the cached value.
func (t *PokemonTemplate) Clone() *PokemonTemplate {
	if t == nil {
		return nil
	}
	out := *t
	out.Moves = make([]Move, len(t.Moves))
	copy(out.Moves, t.Moves)
	return &out
}

// Pokemon is a per-match battle instance of a template. It is owned by
// exactly one player slot and never shared across matches.
type Pokemon struct {
	PokemonTemplate
	CurrentHP int  `json:"current_hp"`
	MaxHP     int  `json:"max_hp"`
	Fainted   bool `json:"fainted"`
}

// ApplyDamage subtracts damage from the instance, flooring HP at zero and
// flagging the faint. Fainted is true exactly when CurrentHP is zero.
func (p *Pokemon) ApplyDamage(dmg int) {
	p.CurrentHP -= dmg
	if p.CurrentHP <= 0 {
		p.CurrentHP = 0
		p.Fainted = true
	}
}

// HasMove reports whether the instance knows the named move.
func (p *Pokemon) HasMove(name string) (Move, bool) {
	for _, m := range p.Moves {
		if m.Name == name {
			return m, true
		}
	}
	return Move{}, false
}

// PlayerSlot is the per-match state for one of the two players.
type PlayerSlot struct {
	SessionID   string     `json:"id"`
	Username    string     `json:"username"`
	Team        []*Pokemon `json:"team"`
	ActiveIndex int        `json:"active_index"`
	HasSelected bool       `json:"has_selected"`
	MustSwitch  bool       `json:"must_switch"`
	// Resolving marks a team submission whose remote resolution is still
	// in flight. A second submission during that window is rejected as
	// already selected instead of being queued.
	Resolving bool `json:"-"`
}

// Active returns the slot's active Pokémon, or nil before team selection.
func (s *PlayerSlot) Active() *Pokemon {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Team) {
		return nil
	}
	return s.Team[s.ActiveIndex]
}

// HasStanding reports whether any team member is still able to battle.
func (s *PlayerSlot) HasStanding() bool {
	for _, p := range s.Team {
		if !p.Fainted {
			return true
		}
	}
	return false
}

// Match is the authoritative per-match state. All transitions happen under
// the match mutex; snapshots are built while holding it.
type Match struct {
	Mu sync.Mutex

	ID      string
	Players [2]*PlayerSlot
	// TurnIndex points at the slot whose action is expected next.
	TurnIndex int
	Phase     Phase
	// Log carries the narration lines for the current turn only; it is
	// reset at the start of every action resolution.
	Log []string
}

// SlotOf returns the slot index for the given session, or -1 when the
// session does not participate in this match.
func (m *Match) SlotOf(sessionID string) int {
	for i, p := range m.Players {
		if p != nil && p.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// User stores a player's leaderboard row. Wins only ever increase.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex" json:"username"`
	Wins     int    `json:"wins"`
}

// TableName pins the persisted table name.
func (User) TableName() string { return "player_profiles" }
