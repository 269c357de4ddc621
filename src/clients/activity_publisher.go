package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"smartroll-attendance-svc/src/internal/config"
	"smartroll-attendance-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ActivityPublisher publishes attendance activity messages to RabbitMQ.
type ActivityPublisher struct {
	channel AMQPChannel
	cfg     *config.RabbitMQConfig
}

func NewActivityPublisher(cfg *config.RabbitMQConfig, channel AMQPChannel) *ActivityPublisher {
	return &ActivityPublisher{
		channel: channel,
		cfg:     cfg,
	}
}

// PublishActivity publishes activity message to the configured exchange
func (p *ActivityPublisher) PublishActivity(message models.ActivityMessage) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   message.Timestamp,
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id":  message.SessionID,
		"service":     message.ServiceName,
		"action":      message.Action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
