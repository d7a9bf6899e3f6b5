package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		ping   error
		status int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewHealthController(pingerFunc(func(context.Context) error { return tt.ping }), func() int { return 3 })
			r := gin.New()
			r.GET("/ping", ctrl.Ping)
			r.GET("/health", ctrl.Health)

			w, env := perform(t, r, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.ping != nil {
				require.NotNil(t, env.Error)
				assert.Equal(t, string(dto.ErrorCodeDatabaseError), env.Error.Code)
				return
			}

			var status map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &status))
			assert.Equal(t, "ok", status["database"])
			assert.EqualValues(t, 3, status["eventClients"])

			w, _ = perform(t, r, http.MethodGet, "/ping", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "pong")
		})
	}
}
