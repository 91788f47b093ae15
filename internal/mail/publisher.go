package mail

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const confirmationQueueName = "email.confirmation"

func brokerURL() string {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return url
}

// Notifier implements the session manager's fire-and-forget notification
// contract.  With a broker configured, events are published to the durable
// email.confirmation queue; without one, the sender is invoked directly.
// Either way the caller never sees a failure.
type Notifier struct {
	Sender *Sender

	publish func(ctx context.Context, ev ConfirmationRequested) error // nil means publishConfirmation
}

// SendConfirmation hands the confirmation mail off for delivery and returns
// immediately: the broker dial and any SMTP round trip happen on a
// goroutine, never on the signup/request path.  Publish errors fall back to
// the direct path so a broker outage does not silently drop signups.
func (n *Notifier) SendConfirmation(email, username, token string) {
	ev := ConfirmationRequested{
		Email:       email,
		Username:    username,
		Token:       token,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go n.deliver(ev)
}

func (n *Notifier) deliver(ev ConfirmationRequested) {
	if brokerURL() != "" {
		publish := n.publish
		if publish == nil {
			publish = publishConfirmation
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publish(ctx, ev); err == nil {
			return
		}
	}
	if err := n.Sender.Send(ev.Email, ev.Username, ev.Token); err != nil {
		log.Printf("mail: direct send failed: %v", err)
	}
}

// publishConfirmation publishes one event to the email.confirmation queue.
// The function attempts to be robust and to never panic; any error is
// logged and returned so the caller can fall back to direct delivery.
// Messages are marked as persistent.
func publishConfirmation(ctx context.Context, ev ConfirmationRequested) error {
	conn, err := amqp.Dial(brokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		confirmationQueueName, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		confirmationQueueName, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
