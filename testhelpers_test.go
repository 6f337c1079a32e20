//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/application"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/kafka"
	petDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/pet"
	roomDomain "github.com/Kilat-Pet-Delivery/service-boarding/internal/domain/room"
	boardingEvents "github.com/Kilat-Pet-Delivery/service-boarding/internal/events"
	"github.com/Kilat-Pet-Delivery/service-boarding/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-boarding/migrations"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// boardingStack holds wired-up boarding service components.
type boardingStack struct {
	Service         *application.BookingService
	Rooms           *repository.GormRoomRepository
	Pets            *repository.GormPetRepository
	Bookings        *repository.GormBookingRepository
	Consumer        *boardingEvents.PaymentEventConsumer
	CleanupProducer func()
}

// setupPostgres starts a PostgreSQL container and applies the embedded migrations.
func setupPostgres(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_boarding",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_boarding",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	logger := zap.NewNop()
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(ctx, db, migrations.FS, migrations.Dir, logger))

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
	return db, cleanup
}

// setupContainers starts PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	db, cleanupPostgres := setupPostgres(t)

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, "booking.events", "payment.events")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		cleanupPostgres()
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBoardingStack wires up the full boarding service stack. With no brokers the
// service publishes nothing and no consumer is built.
func setupBoardingStack(t *testing.T, db *gorm.DB, brokers []string) *boardingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	stack := &boardingStack{
		Rooms:           repository.NewGormRoomRepository(db),
		Pets:            repository.NewGormPetRepository(db),
		Bookings:        repository.NewGormBookingRepository(db),
		CleanupProducer: func() {},
	}

	var publisher application.EventPublisher
	if len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, logger)
		publisher = producer
		stack.CleanupProducer = func() { _ = producer.Close() }
	}
	stack.Service = application.NewBookingService(stack.Bookings, stack.Rooms, stack.Pets, publisher, logger)

	if len(brokers) > 0 {
		groupID := fmt.Sprintf("test-boarding-%s", uuid.New().String()[:8])
		stack.Consumer = boardingEvents.NewPaymentEventConsumer(brokers, groupID, stack.Service, logger)
	}
	return stack
}

// seedRoomAndPet inserts one room and one pet owned by ownerID.
func seedRoomAndPet(t *testing.T, stack *boardingStack, ownerID int64) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	room, err := roomDomain.NewRoom(fmt.Sprintf("R-%s", uuid.New().String()[:6]), "standard", 12)
	require.NoError(t, err)
	require.NoError(t, stack.Rooms.Save(ctx, room))

	pet, err := petDomain.NewPet(ownerID, "Integration", "dog", "corgi")
	require.NoError(t, err)
	require.NoError(t, stack.Pets.Save(ctx, pet))

	return room.ID(), pet.ID()
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPrepaid polls the bookings table until the booking is marked prepaid.
func waitForPrepaid(t *testing.T, db *gorm.DB, bookingID int64, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		err := db.Where("id = ?", bookingID).First(&model).Error
		if err != nil {
			return false
		}
		if model.IsPrepaid {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking %d was not marked prepaid", bookingID)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
