package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/order-reconciler/internal/api/dto"
	"github.com/eshaffer321/order-reconciler/internal/api/handlers"
)

func TestHealth(t *testing.T) {
	t.Run("returns 200 OK with health status", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", handlers.Health)

		rec := serve(router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var response dto.HealthResponse
		decode(t, rec, &response)
		assert.Equal(t, "ok", response.Status)
		assert.NotEmpty(t, response.Timestamp)
	})
}
