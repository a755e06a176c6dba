package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sense360/zone-configurator/internal/pkg/config"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.body = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(&config.HassConfig{
		URL:           srv.URL,
		Token:         "test-token",
		ReconnectBase: time.Second,
	})
	return c, rec
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Health(t *testing.T) {
	c, rec := newTestClient(t, respondJSON(`{"message":"API running."}`))
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, "/api/", rec.path)
	assert.Equal(t, "Bearer test-token", rec.auth)
}

func TestClient_GetState(t *testing.T) {
	c, rec := newTestClient(t, respondJSON(
		`{"entity_id":"number.sensorA_zone_1_begin_x","state":"-1000","attributes":{"min":-6000.0}}`))

	st, err := c.GetState(context.Background(), "number.sensorA_zone_1_begin_x")
	require.NoError(t, err)
	assert.Equal(t, "/api/states/number.sensorA_zone_1_begin_x", rec.path)
	assert.Equal(t, "-1000", st.State)
	assert.Equal(t, -6000.0, st.Attributes["min"])
}

func TestClient_GetState_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetState(context.Background(), "number.nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_States(t *testing.T) {
	c, rec := newTestClient(t, respondJSON(`[
		{"entity_id":"number.sensorA_zone_1_begin_x","state":"-1000","attributes":{}},
		{"entity_id":"switch.sensorA_bluetooth_switch","state":"on","attributes":{}}
	]`))

	states, err := c.States(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/states", rec.path)
	require.Len(t, states, 2)
	assert.Equal(t, "-1000", states["number.sensorA_zone_1_begin_x"].State)
	assert.Equal(t, "on", states["switch.sensorA_bluetooth_switch"].State)
}

func TestClient_SetNumber(t *testing.T) {
	c, rec := newTestClient(t, respondJSON(`[]`))

	require.NoError(t, c.SetNumber(context.Background(), "number.sensorA_zone_1_begin_x", -1500))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/services/number/set_value", rec.path)
	assert.Equal(t, "number.sensorA_zone_1_begin_x", rec.body["entity_id"])
	assert.Equal(t, "-1500", rec.body["value"])
}

func TestClient_Toggles(t *testing.T) {
	tests := map[string]struct {
		call     func(c *Client) error
		wantPath string
	}{
		"switch on": {
			call:     func(c *Client) error { return c.TurnOn(context.Background(), "switch.dev1_bt") },
			wantPath: "/api/services/switch/turn_on",
		},
		"switch off": {
			call:     func(c *Client) error { return c.TurnOff(context.Background(), "switch.dev1_bt") },
			wantPath: "/api/services/switch/turn_off",
		},
		"light domain routes to light services": {
			call:     func(c *Client) error { return c.TurnOn(context.Background(), "light.dev1_led") },
			wantPath: "/api/services/light/turn_on",
		},
		"bare id defaults to switch": {
			call:     func(c *Client) error { return c.TurnOff(context.Background(), "dev1_bt") },
			wantPath: "/api/services/switch/turn_off",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c, rec := newTestClient(t, respondJSON(`[]`))
			require.NoError(t, tc.call(c))
			assert.Equal(t, tc.wantPath, rec.path)
		})
	}
}

func TestClient_SelectOption(t *testing.T) {
	c, rec := newTestClient(t, respondJSON(`[]`))

	require.NoError(t, c.SelectOption(context.Background(), "select.dev1_baud_rate", "256000"))
	assert.Equal(t, "/api/services/select/select_option", rec.path)
	assert.Equal(t, "select.dev1_baud_rate", rec.body["entity_id"])
	assert.Equal(t, "256000", rec.body["option"])
}

func TestClient_Devices(t *testing.T) {
	tests := map[string]struct {
		response string
		want     []string
	}{
		"json array":           {`["sensorA","sensorB"]`, []string{"sensorA", "sensorB"}},
		"single-quoted string": {`"['sensorA', 'sensorB']"`, []string{"sensorA", "sensorB"}},
		"empty":                {`[]`, []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c, rec := newTestClient(t, respondJSON(tc.response))
			devices, err := c.Devices(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "/api/template", rec.path)
			assert.Contains(t, rec.body["template"], "zone_1_begin_x")
			assert.Equal(t, tc.want, devices)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
