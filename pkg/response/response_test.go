package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
	"github.com/noah-isme/siliya-electrical-api/pkg/middleware/requestid"
)

func run(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "req-42")
	r.ServeHTTP(w, req)
	return w
}

func TestErrorUsesTypedStatus(t *testing.T) {
	w := run(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrInvalidStatus, "status must be one of pending, paid"))
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var env struct {
		Error appErrors.Error        `json:"error"`
		Meta  map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "INVALID_STATUS", env.Error.Code)
	assert.Nil(t, env.Meta)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorHidesCauseAndTagsRequestID(t *testing.T) {
	w := run(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
}

func TestAttachmentNamesDownload(t *testing.T) {
	w := run(t, func(c *gin.Context) {
		Attachment(c, "repairs 2024.csv", "text/csv", []byte("id\n"))
	})

	assert.Equal(t, `attachment; filename="repairs 2024.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "id\n", w.Body.String())
}
