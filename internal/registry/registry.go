// Package registry owns matchmaking and the lifecycle of active matches:
// the single waiting slot, match creation and teardown, and disconnect
// handling. Sessions are addressed through the Session interface so the
// transport layer stays pluggable.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/logging"
)

// Session is a connected client as seen by the match core.
type Session interface {
	ID() string
	Username() string
	Send(event string, payload interface{})
}

// WinRecorder receives the winner's username for disconnect awards.
type WinRecorder interface {
	RecordWin(username string) error
}

// Registry tracks the waiting player and all active matches.
type Registry struct {
	mu       sync.Mutex
	waiting  Session
	matches  map[string]*game.Match
	sessions map[string]Session

	recorder WinRecorder
}

// New returns an empty registry. recorder may be nil in tests.
func New(recorder WinRecorder) *Registry {
	return &Registry{
		matches:  make(map[string]*game.Match),
		sessions: make(map[string]Session),
		recorder: recorder,
	}
}

// RequestMatch pairs the session with the waiting player, or parks it as
// the waiting player when none exists. A session never matches itself:
// re-requesting while waiting just re-parks it.
func (r *Registry) RequestMatch(s Session) {
	r.mu.Lock()
	if r.waiting == nil || r.waiting.ID() == s.ID() {
		r.waiting = s
		r.mu.Unlock()
		s.Send(constants.EventWaitingForOpponent, nil)
		return
	}

	first := r.waiting
	r.waiting = nil

	m := &game.Match{
		ID:    uuid.NewString(),
		Phase: game.PhaseSelecting,
		Players: [2]*game.PlayerSlot{
			{SessionID: first.ID(), Username: first.Username()},
			{SessionID: s.ID(), Username: s.Username()},
		},
		Log: []string{"Match found. Select your team."},
	}
	r.matches[m.ID] = m
	r.sessions[first.ID()] = first
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	logging.Info("match created", logging.Fields{
		constants.LogFieldMatchID: m.ID,
		"player_one":              first.Username(),
		"player_two":              s.Username(),
	})
	first.Send(constants.EventMatchFound, map[string]interface{}{
		"matchId":      m.ID,
		"opponentName": s.Username(),
	})
	s.Send(constants.EventMatchFound, map[string]interface{}{
		"matchId":      m.ID,
		"opponentName": first.Username(),
	})
}

// Get returns the match with the given identifier.
func (r *Registry) Get(matchID string) (*game.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	return m, ok
}

// SessionFor returns the registered session for a participant.
func (r *Registry) SessionFor(sessionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// ReleaseIfWaiting clears the waiting slot if it holds the session.
func (r *Registry) ReleaseIfWaiting(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waiting != nil && r.waiting.ID() == s.ID() {
		r.waiting = nil
	}
}

// Terminate removes a finished match and its session links.
func (r *Registry) Terminate(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(matchID)
}

func (r *Registry) removeLocked(matchID string) {
	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	delete(r.matches, matchID)
	for _, slot := range m.Players {
		if slot != nil {
			delete(r.sessions, slot.SessionID)
		}
	}
}

// HandleDisconnect tears down whatever the session was involved in. A
// disconnect mid-battle awards the remaining player a win; during team
// selection the match is merely cancelled.
func (r *Registry) HandleDisconnect(s Session) {
	r.ReleaseIfWaiting(s)

	r.mu.Lock()
	var m *game.Match
	for _, candidate := range r.matches {
		if candidate.SlotOf(s.ID()) >= 0 {
			m = candidate
			break
		}
	}
	if m == nil {
		r.mu.Unlock()
		return
	}

	idx := m.SlotOf(s.ID())
	remainingSlot := m.Players[1-idx]
	remaining := r.sessions[remainingSlot.SessionID]
	r.removeLocked(m.ID)
	r.mu.Unlock()

	m.Mu.Lock()
	battleStarted := m.Phase == game.PhaseBattling
	m.Phase = game.PhaseFinished
	m.Mu.Unlock()

	logging.Info("match removed after disconnect", logging.Fields{
		constants.LogFieldMatchID:   m.ID,
		constants.LogFieldSessionID: s.ID(),
		"battle_started":            battleStarted,
	})

	if remaining == nil {
		return
	}
	if battleStarted {
		if r.recorder != nil {
			if err := r.recorder.RecordWin(remainingSlot.Username); err != nil {
				logging.Error("failed to record disconnect win", err, logging.Fields{
					constants.LogFieldMatchID:  m.ID,
					constants.LogFieldUsername: remainingSlot.Username,
				})
			}
		}
		remaining.Send(constants.EventOpponentDisconnected, map[string]interface{}{
			"message": "Your opponent disconnected. You win!",
		})
		remaining.Send(constants.EventGameOver, map[string]interface{}{
			"winnerId": remainingSlot.SessionID,
		})
		return
	}
	remaining.Send(constants.EventOpponentDisconnected, map[string]interface{}{
		"message": "Your opponent disconnected. The match was cancelled.",
	})
}
