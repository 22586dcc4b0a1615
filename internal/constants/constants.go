package constants

// Centralized constants for env keys, PokeAPI integration and transport events.
const (
	// Environment variable keys
	EnvConfigPath = "POKEMON_CONFIG"
	EnvDBPath     = "POKEMON_DB"

	// PokeAPI defaults. The base URL can be overridden via the config file
	// (useful for tests and offline mirrors).
	PokeAPIBaseURL     = "https://pokeapi.co/api/v2"
	PokeAPIPokemonPath = "/pokemon/"
	PokeAPIMovePath    = "/move/"

	// Preferred version grouping when selecting level-up moves.
	DefaultVersionGroup = "red-blue"

	// Ability shown when a species record carries no non-hidden ability.
	UnknownAbilityName = "Unknown"

	// Team shape: exactly three creatures per player, at most four moves each.
	TeamSize     = 3
	MaxMoveCount = 4
)

// Routes used by the backend router
const (
	RouteAPIPrefix   = "/api"
	RoutePokemon     = "/pokemon"
	RouteLeaderboard = "/leaderboard"
	RouteHealth      = "/healthz"
	RouteWebSocket   = "/ws"
)

// Inbound websocket event names (client -> server)
const (
	EventSetUsername      = "setUsername"
	EventFindMatch        = "findMatch"
	EventSelectTeam       = "selectTeam"
	EventPerformAction    = "performAction"
	EventGetLeaderboard   = "getLeaderboard"
	EventAvailablePokemon = "requestAvailableCreatures"
)

// Outbound websocket event names (server -> client)
const (
	EventAvailableCreatures   = "availableCreatures"
	EventUsernameSet          = "usernameSet"
	EventWaitingForOpponent   = "waitingForOpponent"
	EventMatchFound           = "matchFound"
	EventOpponentReady        = "opponentReady"
	EventWaitingForSelection  = "waitingForOpponentSelection"
	EventBattleStart          = "battleStart"
	EventGameStateUpdate      = "gameStateUpdate"
	EventForceSwitch          = "forceSwitch"
	EventGameOver             = "gameOver"
	EventOpponentDisconnected = "opponentDisconnected"
	EventLeaderboardData      = "leaderboardData"
	EventGameError            = "gameError"
)

// Action types accepted by performAction
const (
	ActionAttack = "attack"
	ActionSwitch = "switch"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
)

// Common error messages surfaced to clients
const (
	ErrInvalidRequest         = "Invalid request"
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrMatchNotFound          = "Match not found"
	ErrTeamResolutionFailed   = "Could not resolve one or more Pokémon; please try again"
)

// Logging field names
const (
	LogFieldMatchID   = "match_id"
	LogFieldSessionID = "session_id"
	LogFieldUsername  = "username"
	LogFieldKey       = "key"
	LogFieldAddr      = "addr"
	LogFieldEvent     = "event"
	LogFieldWinner    = "winner"
)
