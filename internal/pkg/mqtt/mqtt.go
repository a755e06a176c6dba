// Package mqtt mirrors target positions and connection status to an
// MQTT broker for dashboards.
package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

type service struct {
	client paho_mqtt.Client
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client: client,
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(time.Second * 5) {
		return errors.New("unable to connect in time")
	}
	// A completed token can still carry a broker rejection.
	return token.Error()
}
