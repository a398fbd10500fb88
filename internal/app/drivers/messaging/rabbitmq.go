package messaging

import (
	"caresync-service/internal/app/config"
	"fmt"
	"log"

	"github.com/rabbitmq/amqp091-go"
)

// NewRabbitMQ connects the broker carrying record-synced events.
func NewRabbitMQ(driverConfig *config.DriverConfig) *amqp091.Connection {
	uri := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		driverConfig.RabbitMQ.Username,
		driverConfig.RabbitMQ.Password,
		driverConfig.RabbitMQ.Host,
		driverConfig.RabbitMQ.Port,
	)
	conn, err := amqp091.Dial(uri)
	if err != nil {
		log.Fatalf("Failed to connect to the sync event broker: %s", err.Error())
	}
	log.Println("Sync event broker (rabbitmq) connected")
	return conn
}
