package events

import (
	"encoding/json"
	"log"
	"time"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
)

const (
	TopicPaymentVerified = "payment.verified"
	TopicPaymentCheckout = "payment.checkout"
)

var Producer sarama.SyncProducer

func InitProducer() {
	broker := config.Config("KAFKA_BROKER")
	if broker == "" {
		log.Println("⚠️ KAFKA_BROKER not set, payment events will not be published.")
		return
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	var err error
	for i := 1; i <= 3; i++ {
		Producer, err = sarama.NewSyncProducer([]string{broker}, cfg)
		if err == nil {
			log.Printf("✅ Kafka producer connected to %s", broker)
			return
		}
		log.Printf("Failed to connect to Kafka (try %d/3): %v", i, err)
		time.Sleep(2 * time.Second)
	}
	Producer = nil
	log.Printf("🔥 Could not connect to Kafka, continuing without events: %v", err)
}

type PaymentEvent struct {
	EventType     string          `json:"event_type"`
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ActorID       string          `json:"actor_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func PublishPaymentVerified(evt PaymentEvent) {
	evt.EventType = TopicPaymentVerified
	publish(TopicPaymentVerified, evt.OrderID, evt)
}

func PublishPaymentCheckout(evt PaymentEvent) {
	evt.EventType = TopicPaymentCheckout
	publish(TopicPaymentCheckout, evt.OrderID, evt)
}

func publish(topic, key string, evt PaymentEvent) {
	if Producer == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("🔥 Failed to marshal %s event for %s: %v", topic, key, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	}
	if _, _, err := Producer.SendMessage(msg); err != nil {
		log.Printf("🔥 Failed to publish %s for %s: %v", topic, key, err)
	}
}
