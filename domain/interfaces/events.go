package interfaces

import (
	"context"

	"quiz_solver/domain/entities"
)

// EventSink receives control-surface notifications in emission order.
type EventSink interface {
	Emit(ctx context.Context, event entities.Event)
}
