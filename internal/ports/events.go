package ports

import (
	"context"

	"github.com/eleven-am/panther/internal/domain"
)

type EventHandler func(event domain.Event)

type EventBus interface {
	Start(ctx context.Context) error
	Stop() error

	Publish(event domain.Event) error

	// Subscribe registers handler for every event whose type matches pattern. Patterns are
	// an exact type, a "prefix*" wildcard or "*".
	Subscribe(pattern string, handler EventHandler) (unsubscribe func(), err error)
}
