package context

import (
	"context"

	"github.com/rahul4469/crisis-analyzer/internal/models"
)

type contextkey string

const (
	handoffKey contextkey = "handoff"
)

// ContextSetHandoff binds the handoff taken for this request to ctx.
func ContextSetHandoff(ctx context.Context, h *models.Handoff) context.Context {
	return context.WithValue(ctx, handoffKey, h)
}

// ContextGetHandoff retrieves the handoff from request context.
// Returns nil if none was taken for this request.
func ContextGetHandoff(ctx context.Context) *models.Handoff {
	val := ctx.Value(handoffKey)
	h, ok := val.(*models.Handoff)
	if !ok {
		return nil
	}
	return h
}
