package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
)

// AMQPQueue carries run jobs over a durable RabbitMQ queue.
type AMQPQueue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewAMQPQueue(url, queueName string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPQueue{conn: conn, channel: ch, queueName: queueName}, nil
}

func (q *AMQPQueue) Publish(ctx context.Context, job RunJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.channel.Publish(
		"",
		q.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume dispatches deliveries to the handler until the context ends.
// Deliveries are acked regardless of handler outcome: job success and failure
// are recorded on the durable job row, and a run is never retried
// automatically within itself.
func (q *AMQPQueue) Consume(ctx context.Context, handler func(ctx context.Context, job RunJob) error) error {
	msgs, err := q.channel.Consume(
		q.queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			var job RunJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("queue: dropping invalid job payload:", err)
				_ = d.Ack(false)
				continue
			}
			if err := handler(ctx, job); err != nil {
				log.Printf("queue: job %s for campaign %d failed: %v", job.JobID, job.CampaignID, err)
			}
			_ = d.Ack(false)
		}
	}
}

func (q *AMQPQueue) Close() {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

var _ Queue = (*AMQPQueue)(nil)
