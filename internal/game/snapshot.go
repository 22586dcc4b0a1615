package game

// TeamMemberView is the sanitized view of one team member sent to clients.
type TeamMemberView struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"maxHp"`
	Fainted bool   `json:"fainted"`
	Sprite  string `json:"sprite"`
	Ability string `json:"ability"`
}

// ActiveView extends TeamMemberView with the move list. Only the active
// Pokémon exposes its moves.
type ActiveView struct {
	TeamMemberView
	Moves []Move `json:"moves"`
}

// PlayerView is the per-player portion of a snapshot.
type PlayerView struct {
	ID          string           `json:"id"`
	Username    string           `json:"username"`
	Team        []TeamMemberView `json:"team"`
	Active      *ActiveView      `json:"active"`
	ActiveIndex int              `json:"activeIndex"`
	MustSwitch  bool             `json:"mustSwitch"`
}

// Snapshot is the full redundancy-free match view broadcast to both
// sessions after every state change.
type Snapshot struct {
	MatchID string        `json:"matchId"`
	Turn    string        `json:"turn"`
	Players [2]PlayerView `json:"players"`
	Log     []string      `json:"log"`
}

func memberView(p *Pokemon) TeamMemberView {
	return TeamMemberView{
		ID:      p.ID,
		Name:    p.Name,
		HP:      p.CurrentHP,
		MaxHP:   p.MaxHP,
		Fainted: p.Fainted,
		Sprite:  p.Sprite,
		Ability: p.Ability,
	}
}

// BuildSnapshot materializes the client-facing view of the match. The
// caller must hold the match mutex.
func BuildSnapshot(m *Match) Snapshot {
	snap := Snapshot{MatchID: m.ID}
	if turn := m.Players[m.TurnIndex]; turn != nil {
		snap.Turn = turn.SessionID
	}
	snap.Log = append([]string(nil), m.Log...)
	for i, slot := range m.Players {
		if slot == nil {
			continue
		}
		pv := PlayerView{
			ID:          slot.SessionID,
			Username:    slot.Username,
			ActiveIndex: slot.ActiveIndex,
			MustSwitch:  slot.MustSwitch,
		}
		for _, p := range slot.Team {
			pv.Team = append(pv.Team, memberView(p))
		}
		if active := slot.Active(); active != nil {
			av := ActiveView{TeamMemberView: memberView(active)}
			av.Moves = append([]Move(nil), active.Moves...)
			pv.Active = &av
		}
		snap.Players[i] = pv
	}
	return snap
}
