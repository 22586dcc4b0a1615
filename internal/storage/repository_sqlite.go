package storage

import (
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/muizather/pokemon/internal/game"
)

type sqliteRepository struct {
	db *gorm.DB
	// mu serializes the read-modify-write in RecordWin; sqlite does not
	// tolerate concurrent writers well.
	mu sync.Mutex
}

// NewSQLiteRepository wraps a gorm DB handle in the Repository interface.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) RecordWin(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var u game.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		u = game.User{Username: username}
	}
	u.Wins++
	return r.db.Save(&u).Error
}

// GetTopPlayers returns the top N players ordered by wins desc.
func (r *sqliteRepository) GetTopPlayers(limit int) ([]game.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []game.User
	if err := r.db.Model(&game.User{}).
		Order("wins DESC").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
