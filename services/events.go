package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const (
	EVENT_SVC = "event_svc"

	defaultEventExchange = "acrg.events"
	eventQueueSize       = 256
	publishTimeout       = 5 * time.Second
	brokerDialTimeout    = 5 * time.Second
	reconnectMinBackoff  = time.Second
	reconnectMaxBackoff  = 30 * time.Second
)

var ErrEventQueueFull = errors.New("event queue full")

type securityEventStore interface {
	CreateSecurityEvent(event *model.SecurityEvent) error
}

type outboundEvent struct {
	routingKey string
	body       []byte
}

// EventService persists security events and publishes them, together with
// abuse reports, to a topic exchange. Publishing is off when no broker URL is set.
// Publish only enqueues; one worker goroutine owns the broker connection.
type EventService struct {
	appContext.DefaultService

	url      string
	exchange string

	store securityEventStore

	queue     chan outboundEvent
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	// owned by the worker
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewEventService(store securityEventStore, url, exchange string) *EventService {
	if exchange == "" {
		exchange = defaultEventExchange
	}
	return &EventService{
		store:    store,
		url:      url,
		exchange: exchange,
		queue:    make(chan outboundEvent, eventQueueSize),
	}
}

func (svc EventService) Id() string {
	return EVENT_SVC
}

func (svc *EventService) Configure(ctx *appContext.Context) error {
	svc.url = envString("AMQP_URL", envString("RABBITMQ_URL", ""))
	svc.exchange = envString("AMQP_EXCHANGE", defaultEventExchange)
	svc.queue = make(chan outboundEvent, eventQueueSize)
	return svc.DefaultService.Configure(ctx)
}

func (svc *EventService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService).SecurityEvents()

	if svc.url == "" {
		log.Info("AMQP_URL not set, event publishing disabled")
		return nil
	}
	svc.StartPublishing()
	return nil
}

// StartPublishing launches the worker that connects to the broker and drains
// the queue. It is safe to call more than once.
func (svc *EventService) StartPublishing() {
	if !svc.Enabled() {
		return
	}
	svc.startOnce.Do(func() {
		svc.stop = make(chan struct{})
		svc.done = make(chan struct{})
		go svc.publishLoop()
	})
}

// Shutdown stops the worker after a bounded attempt to flush queued events.
func (svc *EventService) Shutdown() {
	svc.stopOnce.Do(func() {
		if svc.stop == nil {
			return
		}
		close(svc.stop)
		<-svc.done
	})
}

func (svc *EventService) Enabled() bool {
	return svc.url != ""
}

// Publish queues payload as JSON under routingKey. It never waits on the
// broker; a full queue drops the event and returns ErrEventQueueFull.
func (svc *EventService) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if !svc.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := shared.Marshal(payload)
	if err != nil {
		return err
	}

	select {
	case svc.queue <- outboundEvent{routingKey: routingKey, body: body}:
		return nil
	default:
		return ErrEventQueueFull
	}
}

func (svc *EventService) publishLoop() {
	defer close(svc.done)
	defer svc.closeConn()

	backoff := reconnectMinBackoff
	for {
		select {
		case <-svc.stop:
			svc.flush()
			return
		case msg := <-svc.queue:
			for {
				err := svc.send(msg)
				if err == nil {
					backoff = reconnectMinBackoff
					break
				}
				log.WithError(err).WithFields(log.Fields{
					"routing_key": msg.routingKey,
					"retry_in":    backoff.String(),
				}).Warn("Event broker unavailable")

				select {
				case <-svc.stop:
					svc.flush()
					return
				case <-time.After(backoff):
				}
				backoff = min(backoff*2, reconnectMaxBackoff)
			}
		}
	}
}

// flush makes one pass over what is still queued, bounded by publishTimeout.
func (svc *EventService) flush() {
	deadline := time.Now().Add(publishTimeout)
	for time.Now().Before(deadline) {
		select {
		case msg := <-svc.queue:
			if err := svc.send(msg); err != nil {
				log.WithError(err).WithField("pending", len(svc.queue)+1).Warn("Dropping queued events on shutdown")
				return
			}
		default:
			return
		}
	}
}

func (svc *EventService) send(msg outboundEvent) error {
	if svc.ch == nil || svc.ch.IsClosed() {
		svc.closeConn()
		if err := svc.connect(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := svc.ch.PublishWithContext(ctx, svc.exchange, msg.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         msg.body,
	})
	if err != nil {
		svc.closeConn()
		return fmt.Errorf("publish %s: %w", msg.routingKey, err)
	}
	return nil
}

func (svc *EventService) connect() error {
	conn, err := amqp.DialConfig(svc.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(brokerDialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(svc.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", svc.exchange, err)
	}

	svc.conn = conn
	svc.ch = ch
	log.WithField("exchange", svc.exchange).Info("Connected to event broker")
	return nil
}

func (svc *EventService) closeConn() {
	if svc.ch != nil {
		svc.ch.Close()
		svc.ch = nil
	}
	if svc.conn != nil {
		svc.conn.Close()
		svc.conn = nil
	}
}

// Record logs, stores and queues one security event. Failures to store or
// publish are logged and never surface to the request.
func (svc *EventService) Record(ctx context.Context, event *model.SecurityEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	entry := log.WithFields(log.Fields{
		"event_type":  event.EventType,
		"identifier":  event.Identifier,
		"resource_id": event.ResourceID,
		"details":     event.Details,
	})
	switch event.Severity {
	case shared.SeverityCritical:
		entry.WithField("event_class", "security_violation").Error("Security violation")
	case shared.SeverityWarning:
		entry.Warn("Security event")
	default:
		entry.Info("Security event")
	}

	if svc.store != nil {
		if err := svc.store.CreateSecurityEvent(event); err != nil {
			log.WithError(err).WithField("event_type", event.EventType).Warn("Failed to persist security event")
		}
	}

	if err := svc.Publish(ctx, event.EventType, event); err != nil {
		log.WithError(err).WithField("event_type", event.EventType).Warn("Failed to publish security event")
	}
}
