// Package events publishes audit entries and live table/kitchen updates
// to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/kiwari-pos/tableside/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultPublishTimeout = 2 * time.Second
	defaultQueueSize      = 1024
)

var (
	// ErrQueueFull is returned when the broker falls too far behind.
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("publisher closed")
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Envelope wraps every message body.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type outgoing struct {
	key string
	msg amqp.Publishing
}

// Publisher queues events and sends them from one goroutine with
// publisher confirms, so callers never wait on the broker.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	acks     <-chan amqp.Confirmation
	exchange string
	timeout  time.Duration
	now      func() time.Time
	onError  func(key string, err error)

	queue chan outgoing
	done  chan struct{}
	tag   uint64 // last delivery tag sent; owned by run

	mu      sync.RWMutex
	stopped bool
}

// Dial connects, declares the durable topic exchange and enables confirms.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, defaultQueueSize))

	p := newPublisher(ch, acks, exchange, defaultQueueSize)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, acks <-chan amqp.Confirmation, exchange string, queueSize int) *Publisher {
	p := &Publisher{
		ch:       ch,
		acks:     acks,
		exchange: exchange,
		timeout:  defaultPublishTimeout,
		now:      time.Now,
		onError: func(key string, err error) {
			log.Printf("WARN: publish %s: %v", key, err)
		},
		queue: make(chan outgoing, queueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Close sends what is queued, then shuts the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Ping reports whether the broker connection is still open.
func (p *Publisher) Ping() error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}
	return nil
}

// Record queues an audit entry as audit.<entity>.<action>.
func (p *Publisher) Record(ctx context.Context, e service.AuditEntry) error {
	key := "audit." + routingWord(e.EntityType) + "." + routingWord(e.Action)
	return p.enqueue(key, "audit", e)
}

// TicketChanged queues kitchen.ticket.<status>.
func (p *Publisher) TicketChanged(ctx context.Context, ev service.TicketEvent) error {
	return p.enqueue("kitchen.ticket."+routingWord(ev.Status), "kitchen.ticket", ev)
}

// TableChanged queues table.<reason>.
func (p *Publisher) TableChanged(ctx context.Context, ev service.TableEvent) error {
	return p.enqueue("table."+routingWord(ev.Reason), "table", ev)
}

func (p *Publisher) enqueue(key, typ string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	at := p.now().UTC()
	body, err := json.Marshal(Envelope{Type: typ, OccurredAt: at, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	out := outgoing{key: key, msg: amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    at,
		Type:         typ,
		Body:         body,
	}}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrClosed
	}
	select {
	case p.queue <- out:
		return nil
	default:
		return fmt.Errorf("%s: %w", key, ErrQueueFull)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for out := range p.queue {
		if err := p.send(out); err != nil {
			p.onError(out.key, err)
		}
	}
}

// send publishes one message and waits for the confirm carrying its
// delivery tag. Late confirms for earlier timed-out messages are skipped.
func (p *Publisher) send(out outgoing) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(ctx, p.exchange, out.key, false, false, out.msg); err != nil {
		return err
	}
	p.tag++
	want := p.tag

	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return errors.New("amqp confirm channel closed")
			}
			if conf.DeliveryTag < want {
				continue
			}
			if conf.DeliveryTag > want {
				return fmt.Errorf("confirm for tag %d while waiting on %d", conf.DeliveryTag, want)
			}
			if !conf.Ack {
				return errors.New("nack from broker")
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func routingWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", " ", "_").Replace(s)
}
