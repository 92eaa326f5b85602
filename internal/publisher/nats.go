package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/smartcity/tripduration/internal/domain"
)

// PublisherMetrics is satisfied by metrics.Collector
type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher announces predictions on <subject>.<model_version>
type NATSPublisher struct {
	nc      Conn
	subject string
	metrics PublisherMetrics
}

func NewNATSPublisher(url, subject string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("tripduration"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("publisher: failed to connect to %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return NewWithConn(nc, subject, m), nil
}

// NewWithConn wraps an existing connection
func NewWithConn(nc Conn, subject string, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// Subject returns the subject an event is published on
func (p *NATSPublisher) Subject(event domain.PredictionEvent) string {
	return fmt.Sprintf("%s.%s", p.subject, subjectToken(event.ModelVersion))
}

// PublishPrediction implements service.EventPublisher
func (p *NATSPublisher) PublishPrediction(ctx context.Context, event domain.PredictionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("publisher: failed to encode event: %w", err)
	}
	err = p.nc.Publish(p.Subject(event), b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("publisher: failed to publish: %w", err)
	}
	return nil
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
