package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestValidationFailed(t *testing.T) {
	c, w := newContext()
	ValidationFailed(c, "invalid input", map[string]string{"text": "required"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, "required", body.Error.Fields["text"])
}

func TestNotFound(t *testing.T) {
	c, w := newContext()
	NotFound(c, "post not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.NotContains(t, w.Body.String(), `"fields"`)
}

func TestSeeOther(t *testing.T) {
	c, w := newContext()
	SeeOther(c, "/api/v1/profiles/bob/posts/3")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/v1/profiles/bob/posts/3", w.Header().Get("Location"))
}
