package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.Equal(t, DefaultDBTracingConfig().DBSystem, p.config.DBSystem)
}

// annotatedSpan runs annotateSpan against a statement whose context carries a
// recording span and returns the finished span
func annotatedSpan(t *testing.T, configure func(*gorm.DB)) sdktrace.ReadOnlySpan {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	ctx, span := tracer.Start(context.Background(), "gorm.query")
	db := &gorm.DB{Statement: &gorm.Statement{Context: ctx}, Config: &gorm.Config{}}
	db.Statement.DB = db
	configure(db)

	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 10 * time.Millisecond}, zap.NewNop())
	p.annotateSpan(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestAnnotateSpan_TableAndRows(t *testing.T) {
	span := annotatedSpan(t, func(db *gorm.DB) {
		db.Statement.Table = "installments"
		db.Statement.RowsAffected = 3
	})

	attrs := spanAttrs(span)
	assert.Equal(t, "installments", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.NotContains(t, attrs, attribute.Key("db.slow_query"))
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestAnnotateSpan_Error(t *testing.T) {
	span := annotatedSpan(t, func(db *gorm.DB) {
		db.Error = errors.New("deadlock detected")
	})

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "deadlock detected", span.Status().Description)
}

func TestAnnotateSpan_RecordNotFoundIsNotAnError(t *testing.T) {
	span := annotatedSpan(t, func(db *gorm.DB) {
		db.Error = gorm.ErrRecordNotFound
	})

	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestAnnotateSpan_SlowQuery(t *testing.T) {
	span := annotatedSpan(t, func(db *gorm.DB) {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now().Add(-time.Second))
	})

	attrs := spanAttrs(span)
	assert.True(t, attrs["db.slow_query"].AsBool())
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "slow_query_warning", span.Events()[0].Name)
}

func TestRegisterOtelGorm(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	disabled := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())
	require.NoError(t, disabled.RegisterOtelGorm(db))
	assert.Nil(t, db.Callback().Query().Get("otel_slow_query:query"))

	enabled := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, enabled.RegisterOtelGorm(db))
	assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:query"))

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}
