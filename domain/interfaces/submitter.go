package interfaces

import (
	"context"

	"quiz_solver/domain/entities"
)

// Submitter reports answers straight to the record store, bypassing the page UI.
type Submitter interface {
	Submit(ctx context.Context, components []entities.Component, meta *entities.AssessmentMeta) entities.SubmitResult
}
