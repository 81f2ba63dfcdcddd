package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contactcenter_backend/internal/origination/service"
	"contactcenter_backend/platform/httpkit"
	"contactcenter_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestOriginateRejectsMalformedAgentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(service.New(nil, nil, logger.New("development")))

	engine := gin.New()
	engine.POST("/call/originate", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextRolesKey, []string{"Agent"})
	}, h.Originate)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/call/originate",
		strings.NewReader(`{"agentId":"not-a-uuid","destination":"+33123456789"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed agentId, got %d", rec.Code)
	}
}
