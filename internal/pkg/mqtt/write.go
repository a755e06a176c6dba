package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/sense360/zone-configurator/internal/pkg/model"
)

func deviceSlug(deviceID string) string {
	// Entity-style device ids slug poorly with their domain dot; strip
	// it first so topics stay flat.
	_, object := model.SplitEntityID(deviceID)
	return strings.ReplaceAll(slug.Make(object), "-", "_")
}

type targetPayload struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Speed    float64 `json:"speed,omitempty"`
	Angle    float64 `json:"angle,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

func (s *service) PublishTargets(ctx context.Context, deviceID string, targets []model.Target) error {
	payload := make([]targetPayload, 0, len(targets))
	for _, t := range targets {
		payload = append(payload, targetPayload{
			ID: t.ID, X: t.X, Y: t.Y, Speed: t.Speed, Angle: t.Angle, Distance: t.Distance,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("sense360/%s/targets", deviceSlug(deviceID))
	token := s.client.Publish(topic, 0, false, data)
	if token.WaitTimeout(time.Second * 10) {
		return nil
	}
	return token.Error()
}

func (s *service) PublishStatus(ctx context.Context, deviceID string, state model.ChannelState) error {
	topic := fmt.Sprintf("sense360/%s/status", deviceSlug(deviceID))
	status := "disconnected"
	if state.Connected() {
		status = "connected"
	}
	// Retained so dashboards see the last known status immediately.
	token := s.client.Publish(topic, 1, true, []byte(status))
	if token.WaitTimeout(time.Second * 5) {
		return nil
	}
	return token.Error()
}
