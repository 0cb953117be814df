package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends pass dispatch requests to a durable RabbitMQ queue.  A
// connection is opened per publish.
type Publisher struct {
	URL   string
	Queue string
}

func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = DefaultDispatchQueue
	}
	return &Publisher{URL: url, Queue: queue}
}

// DefaultDispatchQueue is used when no queue name is configured.
const DefaultDispatchQueue = "pass.dispatch"

// PublishDispatch publishes ev as a persistent JSON message.  Errors are
// returned to the caller, which reports them as a notification failure.
func (p *Publisher) PublishDispatch(ctx context.Context, ev PassDispatchEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    ev.BookingID + ":" + ev.RequestedAt,
			Body:         body,
		})
}
