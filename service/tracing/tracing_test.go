package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartSpan(t *testing.T) {
	transaction, ctx := StartTransaction(context.Background(), "layout.repair")
	span, _ := StartSpan(ctx, "layout.repair.collection", "c1")

	assert.Equal(t, "c1", span.Description)
	assert.Equal(t, transaction.TraceID, span.TraceID)

	AddEventDataToSpan(span, map[string]interface{}{"sections": 2})
	assert.Equal(t, 2, span.Data["sections"])

	FinishSpan(span)
	FinishSpan(transaction)
	FinishSpan(nil)
}
