package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	// EventSource identifies this service in published events
	EventSource = "testimonial-service"

	// EventVersion is the current event schema version
	EventVersion = "1.0"

	// TopicVideos carries video lifecycle events
	TopicVideos = "testimonial.videos"

	// TopicUsers carries user lifecycle events
	TopicUsers = "testimonial.users"
)

// Event types
const (
	EventTypeVideoApproved = "video.approved"
	EventTypeVideoEnriched = "video.enriched"
	EventTypeUserApproved  = "user.approved"
	EventTypeUserInvited   = "user.invited"
)

// Event is the envelope all published events share
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates an event envelope with the service identity filled in
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// VideoApprovedEvent is published when an admin approves a video. The worker
// consumes it to run the merge and publish steps per clip.
type VideoApprovedEvent struct {
	VideoID    uint   `json:"video_id"`
	ClipIDs    []uint `json:"clip_ids"`
	SchoolID   uint   `json:"school_id"`
	OwnerID    uint   `json:"owner_id"`
	ApprovedBy uint   `json:"approved_by"`
}

// VideoEnrichedEvent is published after the worker finishes a video's clips
type VideoEnrichedEvent struct {
	VideoID       uint   `json:"video_id"`
	EnrichedClips []uint `json:"enriched_clips"`
	SkippedClips  []uint `json:"skipped_clips"`
}

// UserApprovedEvent is published when an admin approves a pending account
type UserApprovedEvent struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	SchoolID   uint   `json:"school_id"`
	ApprovedBy uint   `json:"approved_by"`
}

// UserInvitedEvent is published when an admin registers a user on their behalf
type UserInvitedEvent struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	SchoolID uint   `json:"school_id"`
}

// EventPublisher publishes service events to a topic
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// ===== KAFKA PUBLISHER =====

// KafkaEventPublisher publishes events to Kafka through watermill
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.InfoContext(ctx, "Event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// ===== IN-PROCESS PUBLISHER =====

// ChannelEventPublisher publishes events over an in-process go channel pubsub.
// Used when no Kafka brokers are configured; the enrichment worker subscribes
// to the same pubsub within the process.
type ChannelEventPublisher struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

// NewChannelEventPublisher creates an in-process event publisher
func NewChannelEventPublisher(logger *slog.Logger) *ChannelEventPublisher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &ChannelEventPublisher{
		pubSub: pubSub,
		logger: logger,
	}
}

func (p *ChannelEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)

	if err := p.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	return nil
}

// Subscriber exposes the pubsub for in-process consumers
func (p *ChannelEventPublisher) Subscriber() message.Subscriber {
	return p.pubSub
}

func (p *ChannelEventPublisher) Close() error {
	return p.pubSub.Close()
}

// ===== MOCK PUBLISHER =====

// MockEventPublisher records published events for tests
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

// NewMockEventPublisher creates a mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	p.logger.InfoContext(ctx, "Mock event published",
		"event_type", event.Type,
		"topic", topic)

	return nil
}

// GetPublishedEvents returns all recorded events
func (p *MockEventPublisher) GetPublishedEvents() []*Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Event, len(p.events))
	copy(out, p.events)
	return out
}

// ClearEvents drops all recorded events
func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = nil
}

func (p *MockEventPublisher) Close() error {
	return nil
}
