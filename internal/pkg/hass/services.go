package hass

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

// Service calls are write-the-value operations: each one is
// independently idempotent and carries at least entity_id.

type serviceCall struct {
	EntityID string `json:"entity_id"`
	Value    string `json:"value,omitempty"`
	Option   string `json:"option,omitempty"`
}

func (c *Client) callService(ctx context.Context, domain, service string, call serviceCall) error {
	path := fmt.Sprintf("/api/services/%s/%s", domain, service)
	return c.do(ctx, http.MethodPost, path, call, nil)
}

// SetNumber writes a numeric entity's value.
func (c *Client) SetNumber(ctx context.Context, entityID string, value float64) error {
	return c.callService(ctx, "number", "set_value", serviceCall{
		EntityID: entityID,
		Value:    strconv.FormatFloat(value, 'f', -1, 64),
	})
}

// TurnOn switches a switch- or light-domain entity on. The domain is
// taken from the entity id, defaulting to switch for bare ids.
func (c *Client) TurnOn(ctx context.Context, entityID string) error {
	return c.callService(ctx, toggleDomain(entityID), "turn_on", serviceCall{EntityID: entityID})
}

// TurnOff switches a switch- or light-domain entity off.
func (c *Client) TurnOff(ctx context.Context, entityID string) error {
	return c.callService(ctx, toggleDomain(entityID), "turn_off", serviceCall{EntityID: entityID})
}

// SelectOption selects an option on a select-domain entity.
func (c *Client) SelectOption(ctx context.Context, entityID, option string) error {
	return c.callService(ctx, "select", "select_option", serviceCall{EntityID: entityID, Option: option})
}

func toggleDomain(entityID string) string {
	if domain, _ := model.SplitEntityID(entityID); domain == "light" {
		return "light"
	}
	return "switch"
}
