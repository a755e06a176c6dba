package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Devices are discovered by asking the platform's template engine for
// every number entity exposing a zone_1_begin_x suffix; the device id
// is that entity id with the suffix stripped.
const discoveryTemplate = `{{ states.number ` +
	`| selectattr('entity_id', 'search', 'zone_1_begin_x$') ` +
	`| map(attribute='entity_id') ` +
	`| map('regex_replace', '_zone_1_begin_x$', '') ` +
	`| map('regex_replace', '^number\\.', '') ` +
	`| list | to_json }}`

type templateRequest struct {
	Template string `json:"template"`
}

// Devices enumerates the device ids of every sensor that exposes zone
// entities.
func (c *Client) Devices(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/template", templateRequest{Template: discoveryTemplate}, &raw); err != nil {
		return nil, err
	}

	var devices []string
	if err := json.Unmarshal(raw, &devices); err != nil {
		// Some platform versions render the array as a plain string.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &devices); err != nil {
			return nil, err
		}
	}
	return devices, nil
}
