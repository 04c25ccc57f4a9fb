package context

import (
	"context"
	"testing"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHandoffContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ContextGetHandoff(ctx))

	h := &models.Handoff{Query: "smoke", Location: "Library"}
	ctx = ContextSetHandoff(ctx, h)
	assert.Same(t, h, ContextGetHandoff(ctx))
}
