package model

import "time"

// Datagram is one inbound UDP payload as read from the listening socket.
type Datagram struct {
	Data     []byte
	Source   string
	Received time.Time
}
