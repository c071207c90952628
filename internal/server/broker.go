package server

import (
	"encoding/json"
	"sync"
)

// StateEvent is the payload pushed to websocket subscribers whenever
// the session, the sensors, or the calibration state changes.
type StateEvent struct {
	Type        string               `json:"type"`
	Session     *SessionPayload      `json:"session,omitempty"`
	Sensor      *SensorPayload       `json:"sensor,omitempty"`
	Calibration *CalibrationResponse `json:"calibration,omitempty"`
}

// Broker is an in-process pub/sub fanning state events out to every
// connected UI.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel receiving JSON-encoded state events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers.
func (b *Broker) Publish(event StateEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
