package resolver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/muizather/pokemon/internal/game"
	"github.com/muizather/pokemon/internal/pokeapi"
)

type fakeAPI struct {
	mu           sync.Mutex
	pokemon      map[string]*pokeapi.Pokemon
	moves        map[string]*pokeapi.Move
	failMoves    map[string]bool
	pokemonCalls map[string]int
	moveCalls    map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pokemon:      map[string]*pokeapi.Pokemon{},
		moves:        map[string]*pokeapi.Move{},
		failMoves:    map[string]bool{},
		pokemonCalls: map[string]int{},
		moveCalls:    map[string]int{},
	}
}

func (f *fakeAPI) GetPokemon(ctx context.Context, id string) (*pokeapi.Pokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pokemonCalls[id]++
	p, ok := f.pokemon[id]
	if !ok {
		return nil, errors.New("pokemon not found")
	}
	return p, nil
}

func (f *fakeAPI) GetMove(ctx context.Context, id string) (*pokeapi.Move, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveCalls[id]++
	if f.failMoves[id] {
		return nil, errors.New("move endpoint down")
	}
	m, ok := f.moves[id]
	if !ok {
		return nil, errors.New("move not found")
	}
	return m, nil
}

func intPtr(v int) *int { return &v }

func moveEntry(name string, levelUp bool, group string) pokeapi.MoveEntry {
	method := "machine"
	if levelUp {
		method = "level-up"
	}
	return pokeapi.MoveEntry{
		Move: pokeapi.NamedResource{Name: name},
		VersionGroupDetails: []pokeapi.VersionGroupDetail{
			{
				LevelLearnedAt:  5,
				MoveLearnMethod: pokeapi.NamedResource{Name: method},
				VersionGroup:    pokeapi.NamedResource{Name: group},
			},
		},
	}
}

func seedPikachu(f *fakeAPI) {
	f.pokemon["pikachu"] = &pokeapi.Pokemon{
		ID:   25,
		Name: "pikachu",
		Stats: []pokeapi.StatEntry{
			{BaseStat: 35, Stat: pokeapi.NamedResource{Name: "hp"}},
			{BaseStat: 55, Stat: pokeapi.NamedResource{Name: "attack"}},
			{BaseStat: 40, Stat: pokeapi.NamedResource{Name: "defense"}},
			{BaseStat: 90, Stat: pokeapi.NamedResource{Name: "speed"}},
		},
		Sprites: pokeapi.Sprites{FrontDefault: "https://img/pikachu.png"},
		Moves: []pokeapi.MoveEntry{
			moveEntry("thunder-shock", true, "red-blue"),
			moveEntry("quick-attack", true, "red-blue"),
			moveEntry("tackle", false, "red-blue"),
			moveEntry("growl", true, "red-blue"),
			moveEntry("thunderbolt", false, "red-blue"),
			moveEntry("agility", true, "red-blue"),
		},
		Abilities: []pokeapi.AbilityEntry{
			{Ability: pokeapi.NamedResource{Name: "lightning-rod"}, IsHidden: true},
			{Ability: pokeapi.NamedResource{Name: "static"}, IsHidden: false},
		},
	}
	f.moves["thunder-shock"] = &pokeapi.Move{Name: "thunder-shock", Power: intPtr(40)}
	f.moves["quick-attack"] = &pokeapi.Move{Name: "quick-attack", Power: intPtr(40)}
	f.moves["growl"] = &pokeapi.Move{Name: "growl", Power: nil}
	f.moves["agility"] = &pokeapi.Move{Name: "agility", Power: nil}
	f.moves["tackle"] = &pokeapi.Move{Name: "tackle", Power: intPtr(40)}
	f.moves["thunderbolt"] = &pokeapi.Move{Name: "thunderbolt", Power: intPtr(90)}
}

func TestResolveCreature_BuildsTemplate(t *testing.T) {
	f := newFakeAPI()
	seedPikachu(f)
	r := New(f, "red-blue")

	tmpl, err := r.ResolveCreature(context.Background(), "Pikachu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.ID != 25 || tmpl.Name != "Pikachu" {
		t.Fatalf("unexpected identity: %d %q", tmpl.ID, tmpl.Name)
	}
	if tmpl.Stats != (game.Stats{HP: 35, Attack: 55, Defense: 40, Speed: 90}) {
		t.Fatalf("unexpected stats: %+v", tmpl.Stats)
	}
	if tmpl.Ability != "Static" {
		t.Fatalf("expected first non-hidden ability, got %q", tmpl.Ability)
	}
	// Level-up moves within the preferred version group come first, in
	// API order: thunder-shock, quick-attack, growl, agility.
	want := []game.Move{
		{Name: "Thunder Shock", Power: 40},
		{Name: "Quick Attack", Power: 40},
		{Name: "Growl", Power: 0},
		{Name: "Agility", Power: 0},
	}
	if !reflect.DeepEqual(tmpl.Moves, want) {
		t.Fatalf("unexpected moves: %+v", tmpl.Moves)
	}
}

func TestResolveCreature_FillsWithRemainingMoves(t *testing.T) {
	f := newFakeAPI()
	seedPikachu(f)
	// Only one level-up move in the preferred group; the rest must fill
	// deterministically from the remaining entries.
	f.pokemon["pikachu"].Moves = []pokeapi.MoveEntry{
		moveEntry("thunder-shock", true, "red-blue"),
		moveEntry("tackle", false, "red-blue"),
		moveEntry("thunderbolt", true, "gold-silver"),
		moveEntry("growl", false, "red-blue"),
	}
	r := New(f, "red-blue")

	tmpl, err := r.ResolveCreature(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []game.Move{
		{Name: "Thunder Shock", Power: 40},
		{Name: "Tackle", Power: 40},
		{Name: "Thunderbolt", Power: 90},
		{Name: "Growl", Power: 0},
	}
	if !reflect.DeepEqual(tmpl.Moves, want) {
		t.Fatalf("unexpected moves: %+v", tmpl.Moves)
	}
}

func TestResolveCreature_Idempotent(t *testing.T) {
	f := newFakeAPI()
	seedPikachu(f)
	r := New(f, "red-blue")

	first, err := r.ResolveCreature(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.ResolveCreature(context.Background(), "PIKACHU")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated resolution differs:\n%+v\n%+v", first, second)
	}
	if f.pokemonCalls["pikachu"] != 1 {
		t.Fatalf("expected a single species fetch, got %d", f.pokemonCalls["pikachu"])
	}
}

func TestResolveCreature_MoveFallback(t *testing.T) {
	f := newFakeAPI()
	seedPikachu(f)
	f.pokemon["pikachu"].Moves = []pokeapi.MoveEntry{
		moveEntry("tackle", true, "red-blue"),
		moveEntry("thunder-shock", true, "red-blue"),
	}
	f.failMoves["tackle"] = true
	r := New(f, "red-blue")

	tmpl, err := r.ResolveCreature(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("creature resolution must survive a move failure: %v", err)
	}
	var tackle *game.Move
	for i := range tmpl.Moves {
		if tmpl.Moves[i].Name == "Tackle" {
			tackle = &tmpl.Moves[i]
		}
	}
	if tackle == nil {
		t.Fatalf("expected a Tackle entry, got %+v", tmpl.Moves)
	}
	if tackle.Power != 0 {
		t.Fatalf("failed move lookup must degrade to power 0, got %d", tackle.Power)
	}
}

func TestResolveCreature_SpeciesFailurePropagates(t *testing.T) {
	f := newFakeAPI()
	r := New(f, "red-blue")

	if _, err := r.ResolveCreature(context.Background(), "missingno"); err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestResolveCreature_ConcurrentCallsShareOneFetch(t *testing.T) {
	f := newFakeAPI()
	seedPikachu(f)
	r := New(f, "red-blue")

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.ResolveCreature(context.Background(), "pikachu")
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if f.pokemonCalls["pikachu"] != 1 {
		t.Fatalf("expected coalesced species fetch, got %d", f.pokemonCalls["pikachu"])
	}
	for name, calls := range f.moveCalls {
		if calls != 1 {
			t.Fatalf("move %q fetched %d times", name, calls)
		}
	}
}

func TestInstantiate(t *testing.T) {
	tmpl := &game.PokemonTemplate{
		ID:    25,
		Name:  "Pikachu",
		Stats: game.Stats{HP: 35, Attack: 55, Defense: 40, Speed: 90},
		Moves: []game.Move{{Name: "Thunder Shock", Power: 40}},
	}
	inst := Instantiate(tmpl)
	if inst == nil {
		t.Fatal("expected instance")
	}
	if inst.CurrentHP != 35 || inst.MaxHP != 35 || inst.Fainted {
		t.Fatalf("unexpected battle fields: %+v", inst)
	}
	// Instance moves must not alias the template.
	inst.Moves[0].Power = 999
	if tmpl.Moves[0].Power != 40 {
		t.Fatal("instance mutation leaked into template")
	}

	if Instantiate(nil) != nil {
		t.Fatal("nil template must yield nil instance")
	}
}

func TestFormatDisplayName(t *testing.T) {
	cases := map[string]string{
		"pikachu":       "Pikachu",
		"thunder-punch": "Thunder Punch",
		"mr-mime":       "Mr Mime",
	}
	for in, want := range cases {
		if got := FormatDisplayName(in); got != want {
			t.Errorf("FormatDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectMoveNames_Dedupes(t *testing.T) {
	entries := []pokeapi.MoveEntry{
		moveEntry("tackle", true, "red-blue"),
		moveEntry("tackle", false, "red-blue"),
		moveEntry("growl", false, "red-blue"),
	}
	got := selectMoveNames(entries, "red-blue")
	want := []string{"tackle", "growl"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectMoveNames = %v, want %v", got, want)
	}
}

func TestSelectMoveNames_CapsAtFour(t *testing.T) {
	var entries []pokeapi.MoveEntry
	for i := 0; i < 8; i++ {
		entries = append(entries, moveEntry(fmt.Sprintf("move-%d", i), true, "red-blue"))
	}
	if got := selectMoveNames(entries, "red-blue"); len(got) != 4 {
		t.Fatalf("expected 4 moves, got %v", got)
	}
}
