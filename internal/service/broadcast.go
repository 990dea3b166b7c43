package service

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastScenarioEvent(scenarioID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for the CLI and tests.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastScenarioEvent(string, string, any) {}
