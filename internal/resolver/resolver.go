// Package resolver builds battle-ready Pokémon templates from the remote
// data source, caching both species and move lookups through the generic
// resource cache so concurrent team selections never fetch the same
// resource twice.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/muizather/pokemon/internal/cache"
	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/logging"
	"github.com/muizather/pokemon/internal/pokeapi"
)

const levelUpMethod = "level-up"

// Resolver resolves species identifiers into immutable templates.
type Resolver struct {
	api          pokeapi.API
	versionGroup string

	templates *cache.Cache[*game.PokemonTemplate]
	moves     *cache.Cache[game.Move]
}

// New builds a resolver on top of the given remote API. versionGroup names
// the game version grouping preferred when picking level-up moves; empty
// falls back to the default.
func New(api pokeapi.API, versionGroup string) *Resolver {
	if versionGroup == "" {
		versionGroup = constants.DefaultVersionGroup
	}
	return &Resolver{
		api:          api,
		versionGroup: versionGroup,
		templates:    cache.New((*game.PokemonTemplate).Clone),
		moves:        cache.New(func(m game.Move) game.Move { return m }),
	}
}

// ResolveCreature returns the template for the given species identifier
// (name or numeric id, case-insensitive). A remote failure for the species
// itself fails the whole resolution; callers must treat it as a fetch
// failure, never as a partial template.
func (r *Resolver) ResolveCreature(ctx context.Context, identifier string) (*game.PokemonTemplate, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return nil, fmt.Errorf("empty pokemon identifier")
	}
	return r.templates.FetchOrGet(ctx, key, r.buildTemplate)
}

// Instantiate turns a template into a per-match battle instance. A nil
// template yields nil so resolution failures propagate without panicking.
func Instantiate(t *game.PokemonTemplate) *game.Pokemon {
	if t == nil {
		return nil
	}
	return &game.Pokemon{
		PokemonTemplate: *t.Clone(),
		CurrentHP:       t.Stats.HP,
		MaxHP:           t.Stats.HP,
		Fainted:         false,
	}
}

func (r *Resolver) buildTemplate(ctx context.Context, key string) (*game.PokemonTemplate, error) {
	p, err := r.api.GetPokemon(ctx, key)
	if err != nil {
		return nil, err
	}

	tmpl := &game.PokemonTemplate{
		ID:      p.ID,
		Name:    FormatDisplayName(p.Name),
		Stats:   pickStats(p.Stats),
		Sprite:  p.Sprites.FrontDefault,
		Ability: pickAbility(p.Abilities),
	}

	for _, name := range selectMoveNames(p.Moves, r.versionGroup) {
		mv, err := r.resolveMove(ctx, name)
		if err != nil {
			// A single failed move lookup degrades to a zero-power entry
			// instead of failing the whole creature.
			logging.Warn("move fetch failed, using status fallback", logging.Fields{
				constants.LogFieldKey: name,
				"error":               err.Error(),
			})
			mv = game.Move{Name: FormatDisplayName(name), Power: 0}
		}
		tmpl.Moves = append(tmpl.Moves, mv)
	}
	return tmpl, nil
}

func (r *Resolver) resolveMove(ctx context.Context, name string) (game.Move, error) {
	key := strings.ToLower(name)
	return r.moves.FetchOrGet(ctx, key, func(ctx context.Context, key string) (game.Move, error) {
		rec, err := r.api.GetMove(ctx, key)
		if err != nil {
			return game.Move{}, err
		}
		power := 0
		if rec.Power != nil {
			power = *rec.Power
		}
		return game.Move{Name: FormatDisplayName(rec.Name), Power: power}, nil
	})
}

// selectMoveNames picks up to four move names: first, moves learned by
// level progression within the preferred version group; if fewer than four
// are found, remaining moves fill the gaps in API order. Both passes
// preserve order and deduplicate by name, so the result is deterministic.
func selectMoveNames(entries []pokeapi.MoveEntry, versionGroup string) []string {
	seen := make(map[string]struct{}, constants.MaxMoveCount)
	names := make([]string, 0, constants.MaxMoveCount)

	add := func(name string) {
		if _, dup := seen[name]; dup || len(names) >= constants.MaxMoveCount {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, e := range entries {
		for _, d := range e.VersionGroupDetails {
			if d.MoveLearnMethod.Name == levelUpMethod && d.VersionGroup.Name == versionGroup {
				add(e.Move.Name)
				break
			}
		}
	}
	if len(names) < constants.MaxMoveCount {
		for _, e := range entries {
			add(e.Move.Name)
		}
	}
	return names
}

func pickStats(entries []pokeapi.StatEntry) game.Stats {
	var s game.Stats
	for _, e := range entries {
		switch e.Stat.Name {
		case "hp":
			s.HP = e.BaseStat
		case "attack":
			s.Attack = e.BaseStat
		case "defense":
			s.Defense = e.BaseStat
		case "speed":
			s.Speed = e.BaseStat
		}
	}
	return s
}

func pickAbility(entries []pokeapi.AbilityEntry) string {
	for _, e := range entries {
		if !e.IsHidden {
			return FormatDisplayName(e.Ability.Name)
		}
	}
	return constants.UnknownAbilityName
}

// FormatDisplayName turns a hyphen-separated API identifier into a
// human-readable name ("thunder-punch" -> "Thunder Punch").
func FormatDisplayName(raw string) string {
	titler := cases.Title(language.English)
	parts := strings.Split(raw, "-")
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, " ")
}
