package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/muizather/pokemon/internal/constants"
)

// API is the remote data source contract consumed by the resolver. Tests
// substitute a fake implementation.
type API interface {
	GetPokemon(ctx context.Context, identifier string) (*Pokemon, error)
	GetMove(ctx context.Context, identifier string) (*Move, error)
}

// Client talks to a PokeAPI-compatible endpoint over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL. The timeout bounds
// every request so a hung remote fetch fails instead of suspending the
// caller indefinitely.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = constants.PokeAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetPokemon fetches the species record for a name or numeric id.
func (c *Client) GetPokemon(ctx context.Context, identifier string) (*Pokemon, error) {
	var p Pokemon
	if err := c.getJSON(ctx, constants.PokeAPIPokemonPath+url.PathEscape(identifier), &p); err != nil {
		return nil, fmt.Errorf("fetch pokemon %q: %w", identifier, err)
	}
	return &p, nil
}

// GetMove fetches the move record for a name or numeric id.
func (c *Client) GetMove(ctx context.Context, identifier string) (*Move, error) {
	var m Move
	if err := c.getJSON(ctx, constants.PokeAPIMovePath+url.PathEscape(identifier), &m); err != nil {
		return nil, fmt.Errorf("fetch move %q: %w", identifier, err)
	}
	return &m, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
