package channel

// Wire shapes for the platform's WebSocket API.

type serverMessage struct {
	Type    string        `json:"type"`
	ID      int           `json:"id,omitempty"`
	Success *bool         `json:"success,omitempty"`
	Message string        `json:"message,omitempty"`
	Event   *eventPayload `json:"event,omitempty"`
}

type eventPayload struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string    `json:"entity_id"`
		NewState *newState `json:"new_state"`
	} `json:"data"`
}

type newState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

type authMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

type subscribeMessage struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type"`
}
