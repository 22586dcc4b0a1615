package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/muizather/pokemon/internal/constants"
)

type rosterEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	PokeAPI *struct {
		BaseURL             string `json:"base_url"`
		FetchTimeoutSeconds int    `json:"fetch_timeout_seconds"`
		VersionGroup        string `json:"version_group"`
	} `json:"pokeapi"`
	// Roster lists the Pokémon offered to players during team selection.
	Roster []rosterEntry `json:"roster"`
}

// RosterPokemon is one selectable Pokémon advertised to clients.
type RosterPokemon struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LoadedConfig holds the parsed server configuration.
type LoadedConfig struct {
	ServerAddress  string
	PokeAPIBaseURL string
	FetchTimeout   time.Duration
	VersionGroup   string
	Roster         []RosterPokemon
}

// LoadConfig reads the configuration file at path. The roster is required;
// everything else has defaults.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(rc.Roster) == 0 {
		return nil, fmt.Errorf("config file %s: roster is empty (provide a 'roster' array)", path)
	}

	seen := make(map[int]struct{}, len(rc.Roster))
	roster := make([]RosterPokemon, 0, len(rc.Roster))
	for _, e := range rc.Roster {
		if e.ID <= 0 {
			return nil, fmt.Errorf("config file %s: roster entry %q missing positive 'id'", path, e.Name)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("config file %s: roster entry %d missing 'name'", path, e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("config file %s: duplicate roster id %d", path, e.ID)
		}
		seen[e.ID] = struct{}{}
		roster = append(roster, RosterPokemon{ID: e.ID, Name: e.Name})
	}

	out := &LoadedConfig{
		ServerAddress:  ":8080",
		PokeAPIBaseURL: constants.PokeAPIBaseURL,
		FetchTimeout:   15 * time.Second,
		VersionGroup:   constants.DefaultVersionGroup,
		Roster:         roster,
	}
	if rc.Server != nil && rc.Server.Address != "" {
		out.ServerAddress = rc.Server.Address
	}
	if rc.PokeAPI != nil {
		if rc.PokeAPI.BaseURL != "" {
			out.PokeAPIBaseURL = strings.TrimRight(rc.PokeAPI.BaseURL, "/")
		}
		if rc.PokeAPI.FetchTimeoutSeconds > 0 {
			out.FetchTimeout = time.Duration(rc.PokeAPI.FetchTimeoutSeconds) * time.Second
		}
		if rc.PokeAPI.VersionGroup != "" {
			out.VersionGroup = rc.PokeAPI.VersionGroup
		}
	}
	return out, nil
}
