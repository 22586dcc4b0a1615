package pokeapi

// Wire types for the subset of the PokeAPI v2 surface this server consumes.
// Nullable fields use pointers so absent values survive decoding.

type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

type VersionGroupDetail struct {
	LevelLearnedAt  int           `json:"level_learned_at"`
	MoveLearnMethod NamedResource `json:"move_learn_method"`
	VersionGroup    NamedResource `json:"version_group"`
}

type MoveEntry struct {
	Move                NamedResource        `json:"move"`
	VersionGroupDetails []VersionGroupDetail `json:"version_group_details"`
}

type AbilityEntry struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

type Sprites struct {
	FrontDefault string `json:"front_default"`
}

// Pokemon is the species record returned by /pokemon/{identifier}.
type Pokemon struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Stats     []StatEntry    `json:"stats"`
	Sprites   Sprites        `json:"sprites"`
	Moves     []MoveEntry    `json:"moves"`
	Abilities []AbilityEntry `json:"abilities"`
}

// Move is the move record returned by /move/{identifier}. Power is null
// for status moves.
type Move struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Power *int   `json:"power"`
}
