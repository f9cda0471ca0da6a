// Package events re-exports the platform bus so modules only import
// internal/events.
package events

import (
	platformevents "brokerage_backend/platform/events"
	"brokerage_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
