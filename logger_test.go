package shed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
	"github.com/hupe1980/shed/store"
	"github.com/stretchr/testify/assert"
)

func TestLogger_Levels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := model.Record{ID: 1, Weight: model.MinWeight}

	l.LogInsert(ctx, rec, &store.DuplicateKeyError{ID: 1})
	assert.Contains(t, buf.String(), `"level":"INFO","msg":"insert rejected"`)
	buf.Reset()

	l.LogInsert(ctx, rec, errors.New("network down"))
	assert.Contains(t, buf.String(), `"level":"ERROR","msg":"insert failed"`)
	buf.Reset()

	// Storage failures are logged by the store itself.
	l.LogInsert(ctx, rec, store.NewStorageError("PutItem", "InternalServerError", "boom", nil))
	assert.Contains(t, buf.String(), `"level":"DEBUG","msg":"insert failed"`)
	buf.Reset()

	l.LogCount(ctx, 0, store.NewStorageError("Scan", "", "malformed item", errors.New("bad id")))
	assert.Contains(t, buf.String(), `"level":"DEBUG","msg":"count failed"`)
	buf.Reset()

	l.LogCull(ctx, orchestrator.Outcome{}, &orchestrator.ConsistencyError{ID: 1})
	assert.Contains(t, buf.String(), `"msg":"cull aborted by concurrent removal"`)
	buf.Reset()

	l.LogCull(ctx, orchestrator.Outcome{Status: orchestrator.StatusRemoved, Record: rec}, nil)
	assert.Contains(t, buf.String(), `"status":"removed"`)
	buf.Reset()

	l.WithID(9).Info("tagged")
	assert.Contains(t, buf.String(), `"id":9`)
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	l.LogCount(context.Background(), 0, errors.New("ignored"))
	assert.NotNil(t, l.Logger)
}
