package service

import (
	"context"

	"circulation/internal/domain/entity"
)

// EventPublisher defines the interface for publishing committed circulation
// events to a message queue
type EventPublisher interface {
	// PublishCirculationEvent publishes one event
	PublishCirculationEvent(ctx context.Context, event *entity.CirculationEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
