package syncevents

import (
	"caresync-service/internal/app/contracts"
	"caresync-service/internal/app/models"
	"caresync-service/internal/pkg/constvars"
	"caresync-service/internal/pkg/exceptions"
	"context"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// SyncedQueueName carries one message per completed upload or download.
	SyncedQueueName = "patient_synced_events_queue"
)

// Service publishes sync events to RabbitMQ. Publishes are persistent and
// wait for a broker confirm, so an enqueued event survives a broker restart.
type Service struct {
	ch       *amqp.Channel
	log      *zap.Logger
	confirms chan amqp.Confirmation
	mu       sync.Mutex
}

func NewService(conn *amqp.Connection, log *zap.Logger) (contracts.SyncEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		SyncedQueueName, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	)
	if err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		return nil, err
	}

	svc := &Service{
		ch:       ch,
		log:      log,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}

	return svc, nil
}

// PublishRecordSynced enqueues the event and blocks until the broker
// confirms it.
func (s *Service) PublishRecordSynced(ctx context.Context, event models.PatientSyncEvent) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.log.Info("SyncEvents.PublishRecordSynced called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingLocalIDKey, event.LocalID),
		zap.String(constvars.LoggingServerIDKey, event.ServerID),
	)

	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err := s.ch.PublishWithContext(ctx, "", SyncedQueueName, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, SyncedQueueName)
	}

	select {
	case confirmed := <-s.confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQNoConfirm(SyncedQueueName)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), SyncedQueueName)
	}
	return nil
}
