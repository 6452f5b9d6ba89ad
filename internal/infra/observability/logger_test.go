package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := observability.NewLogger(tt.level)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func newLoggedRouter() (http.Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(observability.RequestLogger(zap.New(core)))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/v1/sales/{saleId}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	r.Post("/v1/pos/checkout", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
	r.Get("/v1/products", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("[]")) })
	return r, logs
}

func TestRequestLogger_LevelsAndFields(t *testing.T) {
	router, logs := newLoggedRouter()

	cases := []struct {
		method, path string
		level        zapcore.Level
		route        string
	}{
		{http.MethodGet, "/healthz", zapcore.DebugLevel, "/healthz"},
		{http.MethodGet, "/v1/products", zapcore.InfoLevel, "/v1/products"},
		{http.MethodGet, "/v1/sales/s-42", zapcore.WarnLevel, "/v1/sales/{saleId}"},
		{http.MethodPost, "/v1/pos/checkout", zapcore.ErrorLevel, "/v1/pos/checkout"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, nil)
		req.Header.Set("X-Company-Id", "co-1")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, len(cases))
	for i, c := range cases {
		e := entries[i]
		assert.Equal(t, c.level, e.Level, c.path)
		fields := e.ContextMap()
		assert.Equal(t, c.route, fields["route"], c.path)
		assert.Equal(t, c.path, fields["path"])
		assert.Equal(t, "co-1", fields["company_id"])
	}
}

func TestTenantFields(t *testing.T) {
	assert.Nil(t, observability.TenantFields(nil))

	core, logs := observer.New(zapcore.InfoLevel)
	tc := &domain.TenantContext{TenantID: "co-1", PrincipalID: "u-1", Role: domain.RoleManager}
	zap.New(core).Info("checkout", observability.TenantFields(tc)...)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "co-1", fields["company_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "manager", fields["role"])
}
