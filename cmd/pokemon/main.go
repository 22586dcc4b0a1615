package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/muizather/pokemon/internal/api"
	"github.com/muizather/pokemon/internal/config"
	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/logging"
	"github.com/muizather/pokemon/internal/pokeapi"
	"github.com/muizather/pokemon/internal/registry"
	"github.com/muizather/pokemon/internal/resolver"
	"github.com/muizather/pokemon/internal/service"
	"github.com/muizather/pokemon/internal/storage"
	"github.com/muizather/pokemon/internal/version"
)

func main() {
	configPath := pflag.String("config", "", "path to the JSON configuration file")
	dbPath := pflag.String("db", "", "path to the sqlite database file")
	pflag.Parse()

	if *configPath == "" {
		*configPath = os.Getenv(constants.EnvConfigPath)
	}
	if *configPath == "" {
		*configPath = "./pokemon_config.json"
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logging.Fatal("Missing or invalid configuration", err, logging.Fields{
			"config_path": *configPath,
			"hint":        "create a pokemon_config.json with a 'roster' array of {id,name} entries and optional keys: server.address, pokeapi.{base_url,fetch_timeout_seconds,version_group}",
		})
	}

	if *dbPath == "" {
		*dbPath = os.Getenv(constants.EnvDBPath)
	}
	if *dbPath == "" {
		*dbPath = "./data/pokemon.db"
	}
	db, err := storage.OpenAndMigrate(*dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	client := pokeapi.NewClient(cfg.PokeAPIBaseURL, cfg.FetchTimeout)
	res := resolver.New(client, cfg.VersionGroup)
	reg := registry.New(repo)
	damage := service.NewDamageCalc(rand.New(rand.NewSource(time.Now().UnixNano())))

	handler := api.NewHandler(reg, res, repo, cfg.Roster, damage)
	router := api.NewRouter(handler)

	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: cfg.ServerAddress,
		"version":              version.Version,
		"roster_size":          len(cfg.Roster),
	})
	if err := router.Run(cfg.ServerAddress); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
