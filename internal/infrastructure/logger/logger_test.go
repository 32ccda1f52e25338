package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func fieldMap(entry observer.LoggedEntry) map[string]interface{} {
	return entry.ContextMap()
}

func TestNew(t *testing.T) {
	t.Run("stdout console logger", func(t *testing.T) {
		l, err := New(DefaultConfig(), "ar-ledger")
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path}, "ar-ledger")
		require.NoError(t, err)
		l.Info("Payment recorded")
		require.NoError(t, l.Sync())
		assert.FileExists(t, path)
	})

	t.Run("unwritable file is an error", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "ledger.log")}, "")
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestContextLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx, _ := WithRequestID(context.Background(), base, "req-1")
	ctx, _ = WithActorID(ctx, FromContext(ctx), "user-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-9", GetActorID(ctx))
	assert.Empty(t, GetJob(ctx))

	L(ctx).Info("Invoice created", zap.String("invoice_id", "inv-1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := fieldMap(entries[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-9", fields["actor_id"])
	assert.Equal(t, "inv-1", fields["invoice_id"])
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	WithLogger(context.Background(), nil).Info("dropped")
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(l *zap.Logger) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(GinRequestIDKey, "req-42")
			c.Next()
		})
		r.Use(GinMiddleware(l))
		r.GET("/invoices/:id", func(c *gin.Context) {
			assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		r.GET("/missing", func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})
		return r
	}

	t.Run("logs successful request at info", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		w := httptest.NewRecorder()
		newRouter(zap.New(core)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/abc", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		entries := recorded.FilterMessage("HTTP Request").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		fields := fieldMap(entries[0])
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, "/invoices/:id", fields["route"])
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		w := httptest.NewRecorder()
		newRouter(zap.New(core)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		entries := recorded.FilterMessage("HTTP Request").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGormLogger(t *testing.T) {
	ctx := context.Background()
	query := func() (string, int64) { return `SELECT * FROM "invoices" WHERE id = $1`, 1 }

	t.Run("errors logged, record not found ignored", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)

		gl.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())

		gl.Trace(ctx, time.Now(), query, errors.New("connection reset"))
		assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
	})

	t.Run("slow queries warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.WarnLevel, recorded.All()[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info).LogMode(gormlogger.Silent)

		gl.Trace(ctx, time.Now(), query, errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("params filtered unless full SQL", func(t *testing.T) {
		gl := NewGormLogger(zap.NewNop(), gormlogger.Info)
		_, params := gl.ParamsFilter(ctx, "SELECT $1", "secret@example.com")
		assert.Nil(t, params)

		gl = NewGormLogger(zap.NewNop(), gormlogger.Info, WithFullSQL(true))
		_, params = gl.ParamsFilter(ctx, "SELECT $1", "secret@example.com")
		assert.Equal(t, []any{"secret@example.com"}, params)
	})

	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
