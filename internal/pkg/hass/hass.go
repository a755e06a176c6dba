// Package hass is the REST client for the automation platform: entity
// reads, the templated device discovery query and the service calls the
// sync engine writes through.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sense360/zone-configurator/internal/pkg/config"
	"github.com/sense360/zone-configurator/internal/pkg/model"
)

var ErrNotFound = errors.New("entity not found")

type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	logger  *zap.Logger
}

func New(cfg *config.HassConfig) *Client {
	c := &Client{
		baseURL: cfg.URL,
		token:   cfg.Token,
		hc:      &http.Client{Timeout: 10 * time.Second},
		logger:  zap.L(),
	}
	c.warnIfExpiring()
	return c
}

// Long-lived access tokens are JWTs; peek at the expiry without
// verifying the signature so a dead token is reported up front.
func (c *Client) warnIfExpiring() {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, &claims); err != nil || claims.ExpiresAt == nil {
		return
	}
	switch remaining := time.Until(claims.ExpiresAt.Time); {
	case remaining <= 0:
		c.logger.Warn("access token is expired", zap.Time("expired_at", claims.ExpiresAt.Time))
	case remaining < 24*time.Hour:
		c.logger.Warn("access token expires soon", zap.Duration("remaining", remaining))
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Health checks connectivity to the platform API.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/", nil, &struct {
		Message string `json:"message"`
	}{})
}

type stateObject struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// GetState reads one entity. ErrNotFound when the platform does not
// know the id.
func (c *Client) GetState(ctx context.Context, entityID string) (model.EntityState, error) {
	var obj stateObject
	if err := c.do(ctx, http.MethodGet, "/api/states/"+entityID, nil, &obj); err != nil {
		return model.EntityState{}, err
	}
	return model.EntityState{State: obj.State, Attributes: obj.Attributes}, nil
}

// States bulk-loads every entity state the platform holds. This is the
// initial snapshot load; the live channel keeps it current afterwards.
func (c *Client) States(ctx context.Context) (map[string]model.EntityState, error) {
	var objs []stateObject
	if err := c.do(ctx, http.MethodGet, "/api/states", nil, &objs); err != nil {
		return nil, err
	}
	out := make(map[string]model.EntityState, len(objs))
	for _, o := range objs {
		out[o.EntityID] = model.EntityState{State: o.State, Attributes: o.Attributes}
	}
	return out, nil
}
