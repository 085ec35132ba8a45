package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes to and consumes from durable RabbitMQ queues named after topics.
type AMQPQueue struct {
	conn       *amqp.Connection
	pubMu      sync.Mutex
	pubCh      *amqp.Channel
	logger     *zap.Logger
	maxRetries int
	declared   sync.Map
}

func NewAMQPQueue(url string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, pubCh: ch, logger: logger, maxRetries: defaultMaxRetries}, nil
}

func (q *AMQPQueue) declare(ch *amqp.Channel, topic string) error {
	if _, ok := q.declared.Load(topic); ok {
		return nil
	}
	_, err := ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared.Store(topic, struct{}{})
	return nil
}

func (q *AMQPQueue) Publish(ctx context.Context, topic string, body []byte) error {
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retryCount int) error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	if err := q.declare(q.pubCh, topic); err != nil {
		return err
	}
	return q.pubCh.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: int32(retryCount)},
		Body:         body,
	})
}

// Subscribe starts a consumer goroutine on its own channel. Failed
// deliveries are re-published with an incremented retry header and acked,
// until maxRetries is reached.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for d := range msgs {
			q.handleDelivery(topic, d, handler)
		}
		q.logger.Info("consumer stopped", zap.String("topic", topic))
	}()
	return nil
}

func (q *AMQPQueue) handleDelivery(topic string, d amqp.Delivery, handler Handler) {
	err := handler(context.Background(), d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	retryCount := RetryCount(d.Headers)
	q.logger.Warn("job failed",
		zap.String("topic", topic), zap.Int("attempt", retryCount+1), zap.Error(err))

	if retryCount < q.maxRetries {
		if pubErr := q.publish(topic, d.Body, retryCount+1); pubErr != nil {
			q.logger.Error("requeue failed, returning to broker", zap.String("topic", topic), zap.Error(pubErr))
			d.Nack(false, true)
			return
		}
	} else {
		q.logger.Error("job permanently failed", zap.String("topic", topic), zap.Int("attempts", retryCount+1))
	}
	d.Ack(false)
}

// RetryCount reads the retry header regardless of the integer width the
// broker decoded it as.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	if q.pubCh != nil {
		q.pubCh.Close()
	}
	return q.conn.Close()
}
