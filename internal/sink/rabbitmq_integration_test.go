//go:build integration

package sink

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestConnection() {
	pub, err := NewRabbitMQ(RabbitMQConfig{
		URL:       s.amqpURL,
		Exchange:  "test-exchange",
		QueueName: "test-queue",
	}, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestSchemaRecordState() {
	cfg := RabbitMQConfig{
		URL:       s.amqpURL,
		Exchange:  "test-exchange-flow",
		QueueName: "test-queue-flow",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	stream := catalog.MustLookup(catalog.Transactions)
	s.Require().NoError(pub.WriteSchema(s.ctx, stream.Name, stream.Schema, stream.KeyProperties))
	s.Require().NoError(pub.WriteRecord(s.ctx, stream.Name, domain.Record{"id": float64(1), "datasettype": "advertiser"}))
	s.Require().NoError(pub.WriteState(s.ctx, &domain.State{LastFetched: "2021-01-07T23:59:59Z"}))

	msgs := s.consumeMessages(cfg, 3)
	s.Require().Len(msgs, 3)

	var schema, record, state Message
	s.Require().NoError(json.Unmarshal(msgs[0].Body, &schema))
	s.Require().NoError(json.Unmarshal(msgs[1].Body, &record))
	s.Require().NoError(json.Unmarshal(msgs[2].Body, &state))

	s.Equal(TypeSchema, schema.Type)
	s.Equal("Transactions", msgs[0].RoutingKey)
	s.Equal([]string{"id"}, schema.KeyProperties)

	s.Equal(TypeRecord, record.Type)
	s.Equal("advertiser", record.Record["datasettype"])
	s.Equal("application/json", msgs[1].ContentType)
	s.Equal(uint8(amqp.Persistent), msgs[1].DeliveryMode)

	s.Equal(TypeState, state.Type)
	s.Equal("state", msgs[2].RoutingKey)
	s.Equal("2021-01-07T23:59:59Z", state.Value.LastFetched)
}

func (s *RabbitMQIntegrationSuite) consumeMessages(cfg RabbitMQConfig, n int) []amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	var out []amqp.Delivery
	for len(out) < n {
		select {
		case msg := <-msgs:
			out = append(out, msg)
		case <-time.After(5 * time.Second):
			s.Fail("Timeout waiting for message")
			return out
		}
	}
	return out
}
