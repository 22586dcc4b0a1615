package storage

import "github.com/muizather/pokemon/internal/game"

// Repository persists leaderboard state. The match core only ever calls
// RecordWin; reads serve the leaderboard endpoints.
type Repository interface {
	// RecordWin increments the win count for username, creating the row
	// on first win. Win counts only ever increase.
	RecordWin(username string) error
	// GetTopPlayers returns up to limit players ordered by wins.
	GetTopPlayers(limit int) ([]game.User, error)
}
