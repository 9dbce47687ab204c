// Package types contains common types used across the application
package types

// Route is one routing table row as shown to operators.
type Route struct {
	Station string `json:"station"`
	Address string `json:"address"`
}

// Pending is the half-built pair held for a correlated station.
// A nil field means that part has not arrived yet.
type Pending struct {
	Numeric *float32 `json:"float"`
	Text    *string  `json:"string"`
}

// Empty reports whether neither part is held.
func (p Pending) Empty() bool { return p.Numeric == nil && p.Text == nil }

// Status summarizes router health for the admin surface.
type Status struct {
	IsRunning         bool               `json:"isRunning"`
	Port              int                `json:"port"`
	CachedClientCount int                `json:"connectedClients"`
	RoutingEntryCount int                `json:"routingEntries"`
	EventCount        int                `json:"eventCount"`
	QueueLength       int                `json:"queueLength"`
	Pending           map[string]Pending `json:"pending,omitempty"`
}

// NetworkInfo tells operators where stations should send their scores.
type NetworkInfo struct {
	ServerIP string `json:"serverIP"`
	OSCPort  int    `json:"oscPort"`
}
