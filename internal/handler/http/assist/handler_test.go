package assist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatx-backend/internal/service/assist"
	"chatx-backend/pkg/config"
	"chatx-backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitDefault()
}

func newTestRouter(geminiURL string) *gin.Engine {
	svc := assist.NewService(config.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: geminiURL,
		Model:   "gemini-2.0-flash",
		Timeout: 2 * time.Second,
	})
	handler := NewHandler(svc)

	router := gin.New()
	router.POST("/summarize", handler.Summarize)
	router.POST("/translate", handler.Translate)
	return router
}

func fakeGemini(text string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
			},
		})
	}))
}

func TestSummarize(t *testing.T) {
	ts := fakeGemini("a short summary")
	defer ts.Close()
	router := newTestRouter(ts.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"text":"a very long text"}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "a short summary", body.Data.Summary)
}

func TestTranslate_AcceptsTargetLanguageField(t *testing.T) {
	ts := fakeGemini("hola")
	defer ts.Close()
	router := newTestRouter(ts.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/translate",
		strings.NewReader(`{"text":"hello","targetLanguage":"es"}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Translation string `json:"translation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hola", body.Data.Translation)
}

func TestTranslate_MissingTargetLanguage(t *testing.T) {
	router := newTestRouter("http://unused")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(`{"text":"hello"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummarize_UpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	router := newTestRouter(ts.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"text":"hello"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
