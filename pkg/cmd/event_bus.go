package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/hartline/clientops/pkg/channels/gochannel"
	"github.com/hartline/clientops/pkg/eventbus"
)

// NewEventBus builds an event bus for the given provider. gochannel is the
// in-process default.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic("failed to create gochannel pub/sub: " + err.Error())
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
