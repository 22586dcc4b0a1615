package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/logging"
	"github.com/muizather/pokemon/internal/service"
)

type setUsernamePayload struct {
	Name string `json:"name"`
}

type selectTeamPayload struct {
	MatchID string `json:"matchId"`
	TeamIDs []int  `json:"teamIds"`
}

type performActionPayload struct {
	MatchID string         `json:"matchId"`
	Action  service.Action `json:"action"`
}

// LeaderboardEntry is one row of the ranked leaderboard list.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

// dispatch routes one inbound event to its handler. Events for a session
// are processed in arrival order.
func (h *Handler) dispatch(c *Client, data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Send(constants.EventGameError, errPayload(constants.ErrInvalidRequest))
		return
	}

	switch msg.Type {
	case constants.EventSetUsername:
		h.handleSetUsername(c, msg.Payload)
	case constants.EventFindMatch:
		h.registry.RequestMatch(c)
	case constants.EventSelectTeam:
		h.handleSelectTeam(c, msg.Payload)
	case constants.EventPerformAction:
		h.handlePerformAction(c, msg.Payload)
	case constants.EventGetLeaderboard:
		h.handleGetLeaderboard(c)
	case constants.EventAvailablePokemon:
		c.Send(constants.EventAvailableCreatures, h.roster)
	default:
		c.Send(constants.EventGameError, errPayload("Unknown event: "+msg.Type))
	}
}

func (h *Handler) handleSetUsername(c *Client, raw json.RawMessage) {
	var p setUsernamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.Send(constants.EventGameError, errPayload(constants.ErrInvalidRequest))
		return
	}
	name := strings.TrimSpace(p.Name)
	if name == "" || utf8.RuneCountInString(name) > 32 {
		c.Send(constants.EventGameError, errPayload("Username must be 1-32 characters"))
		return
	}
	c.setUsername(name)
	c.Send(constants.EventUsernameSet, map[string]interface{}{"name": name})
}

func (h *Handler) handleSelectTeam(c *Client, raw json.RawMessage) {
	var p selectTeamPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.Send(constants.EventGameError, errPayload(constants.ErrInvalidRequest))
		return
	}
	m, ok := h.registry.Get(p.MatchID)
	if !ok {
		c.Send(constants.EventGameError, errPayload(constants.ErrMatchNotFound))
		return
	}

	out, err := service.SelectTeam(context.Background(), h.resolver, m, c.ID(), p.TeamIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTeamResolution):
			c.Send(constants.EventGameError, errPayload(constants.ErrTeamResolutionFailed))
		default:
			c.Send(constants.EventGameError, errPayload(err.Error()))
		}
		return
	}

	if out.BothReady {
		h.broadcast(m, constants.EventBattleStart, out.Snapshot)
		return
	}
	// Tell the submitter to wait and nudge the opponent.
	c.Send(constants.EventWaitingForSelection, nil)
	if idx := m.SlotOf(c.ID()); idx >= 0 {
		opponentID := m.Players[1-idx].SessionID
		if opponent, ok := h.registry.SessionFor(opponentID); ok {
			opponent.Send(constants.EventOpponentReady, nil)
		}
	}
}

func (h *Handler) handlePerformAction(c *Client, raw json.RawMessage) {
	var p performActionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.Send(constants.EventGameError, errPayload(constants.ErrInvalidRequest))
		return
	}
	m, ok := h.registry.Get(p.MatchID)
	if !ok {
		c.Send(constants.EventGameError, errPayload(constants.ErrMatchNotFound))
		return
	}

	out, err := service.PerformAction(h.repo, h.damage, m, c.ID(), p.Action)
	if err != nil {
		c.Send(constants.EventGameError, errPayload(err.Error()))
		return
	}

	h.broadcast(m, constants.EventGameStateUpdate, out.Snapshot)
	if out.ForcedSwitchID != "" {
		if forced, ok := h.registry.SessionFor(out.ForcedSwitchID); ok {
			forced.Send(constants.EventForceSwitch, map[string]interface{}{
				"reason": "Your active Pokémon fainted. Choose another.",
			})
		}
	}
	if out.Finished {
		h.broadcast(m, constants.EventGameOver, map[string]interface{}{
			"winnerId":      out.WinnerID,
			"finalSnapshot": out.Snapshot,
		})
		h.registry.Terminate(m.ID)
		logging.Info("match finished", logging.Fields{
			constants.LogFieldMatchID: m.ID,
			constants.LogFieldWinner:  out.WinnerName,
		})
	}
}

func (h *Handler) handleGetLeaderboard(c *Client) {
	users, err := h.repo.GetTopPlayers(10)
	if err != nil {
		logging.Error("failed to fetch leaderboard", err, nil)
		c.Send(constants.EventGameError, errPayload(constants.ErrFailedFetchLeaderboard))
		return
	}
	c.Send(constants.EventLeaderboardData, rankUsers(users))
}

// broadcast sends the same event to both participants of a match.
func (h *Handler) broadcast(m *game.Match, event string, payload interface{}) {
	for _, slot := range m.Players {
		if slot == nil {
			continue
		}
		if s, ok := h.registry.SessionFor(slot.SessionID); ok {
			s.Send(event, payload)
		}
	}
}

func rankUsers(users []game.User) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{Rank: i + 1, Username: u.Username, Wins: u.Wins})
	}
	return entries
}

func errPayload(msg string) map[string]interface{} {
	return map[string]interface{}{constants.JSONKeyMessage: msg}
}
