package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muizather/pokemon/internal/config"
	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/registry"
	"github.com/muizather/pokemon/internal/service"
	"github.com/muizather/pokemon/internal/storage"
	"github.com/muizather/pokemon/internal/version"
)

// Handler bundles the dependencies shared by the REST and websocket
// surfaces.
type Handler struct {
	registry *registry.Registry
	resolver service.CreatureResolver
	repo     storage.Repository
	roster   []config.RosterPokemon
	damage   service.DamageCalc
}

// NewHandler wires the transport layer to the match core.
func NewHandler(reg *registry.Registry, res service.CreatureResolver, repo storage.Repository, roster []config.RosterPokemon, damage service.DamageCalc) *Handler {
	return &Handler{
		registry: reg,
		resolver: res,
		repo:     repo,
		roster:   roster,
		damage:   damage,
	}
}

// NewRouter builds the gin router with all routes attached.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RoutePokemon, h.ListPokemon)
		apiRoutes.GET(constants.RouteLeaderboard, h.ListLeaderboard)
	}
	router.GET(constants.RouteHealth, h.Health)
	router.GET(constants.RouteWebSocket, h.HandleWebSocket)
	return router
}

// ListPokemon returns the roster of selectable Pokémon.
func (h *Handler) ListPokemon(c *gin.Context) {
	c.JSON(http.StatusOK, h.roster)
}

// ListLeaderboard returns the ranked win list.
func (h *Handler) ListLeaderboard(c *gin.Context) {
	users, err := h.repo.GetTopPlayers(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	c.JSON(http.StatusOK, rankUsers(users))
}

// Health reports liveness for container probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}
