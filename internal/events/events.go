// Package events publishes label lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject label-created events are published on.
const DefaultSubject = "shipscan.labels.created"

// LabelCreated is emitted after the carrier returned a label.
type LabelCreated struct {
	ShipmentNo     string    `json:"shipmentNo"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"trackingNumber"`
	ShipmentID     string    `json:"shipmentId"`
	ServiceCode    string    `json:"serviceCode"`
	TotalCharge    float64   `json:"totalCharge"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishLabelCreated(ctx context.Context, evt LabelCreated) error
	Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishLabelCreated(context.Context, LabelCreated) error { return nil }
func (Nop) Close()                                                  {}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSPublisher{conn: nc, js: js, subject: subject}, nil
}

// PublishLabelCreated encodes evt as JSON and publishes it.
func (p *NATSPublisher) PublishLabelCreated(ctx context.Context, evt LabelCreated) error {
	if p == nil {
		return errors.New("nil publisher")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// MsgId lets the stream drop a repeated publish of the same label.
	_, err = p.js.Publish(p.subject, data, nats.Context(ctx), nats.MsgId(evt.ShipmentNo+"/"+evt.TrackingNumber))
	return err
}

// Close drains the underlying NATS connection.
func (p *NATSPublisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []LabelCreated
	Err    error
}

func (r *Recorder) PublishLabelCreated(_ context.Context, evt LabelCreated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() {}

// Events returns the recorded events.
func (r *Recorder) Events() []LabelCreated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LabelCreated(nil), r.events...)
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = (*Recorder)(nil)
)
