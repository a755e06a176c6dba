package mqtt

import (
	"errors"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
)

type mockToken struct {
	paho_mqtt.Token
	completed bool
	err       error
}

func (m *mockToken) WaitTimeout(time.Duration) bool { return m.completed }
func (m *mockToken) Error() error                   { return m.err }

type mockClient struct {
	paho_mqtt.Client
	token *mockToken
}

func (m *mockClient) Connect() paho_mqtt.Token { return m.token }

func TestConnect(t *testing.T) {
	tests := map[string]struct {
		token   *mockToken
		wantErr string
	}{
		"connected": {
			token: &mockToken{completed: true},
		},
		"completed with broker rejection": {
			token:   &mockToken{completed: true, err: errors.New("not authorized")},
			wantErr: "not authorized",
		},
		"timed out": {
			token:   &mockToken{completed: false},
			wantErr: "unable to connect in time",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			svc := New(&mockClient{token: tc.token})
			err := svc.Connect()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}
