package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regbot/database"
	"regbot/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *database.SessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	store := database.NewSessionStore(db)

	router := gin.New()
	ctrl := NewChatController(nil, store)
	router.GET("/health", ctrl.Health)
	router.DELETE("/history/:session_id", ctrl.DeleteHistory)
	return router, store
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", strings.TrimSpace(w.Body.String()))
}

func TestDeleteHistoryNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/history/never-created", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteHistory(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.Ensure("s1"))
	require.NoError(t, store.AppendTurns("s1", "سوال", "پاسخ"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/history/s1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "s1")

	count, err := store.CountMessages("s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatRejectsMissingQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ctrl := NewChatController(nil, nil)
	router.POST("/chat", ctrl.Chat)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "s1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
