package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/auth/me", "")
	require.NoError(t, WriteError(c, fmt.Errorf("load: %w", errors.New("dial tcp 10.0.0.3:3306"))))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := errorBody(t, rec)
	assert.Equal(t, auth.MsgInternal, body.Message)
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "/api/auth/me", body.Path)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestHTTPErrorHandler(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/missing", "")
	HTTPErrorHandler(echo.ErrNotFound, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, errorBody(t, rec).Status)

	c, rec = newContext(http.MethodGet, "/api/boom", "")
	HTTPErrorHandler(echo.NewHTTPError(http.StatusBadGateway, "upstream secret"), c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, auth.MsgInternal, errorBody(t, rec).Message)

	c, rec = newContext(http.MethodGet, "/api/x", "")
	HTTPErrorHandler(errors.New("plain"), c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReadJSONObject(t *testing.T) {
	for body, ok := range map[string]bool{
		`{"title":"Go"}`: true,
		`{}`:             true,
		`[1,2]`:          false,
		`null`:           false,
		`"x"`:            false,
		``:               false,
	} {
		c, _ := newContext(http.MethodPost, "/api/courses", body)
		_, got := readJSONObject(c)
		assert.Equal(t, ok, got, body)
	}
}

func TestQueryInt(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/news?page=3&size=x", "")
	assert.Equal(t, 3, queryInt(c, "page", 0))
	assert.Equal(t, -1, queryInt(c, "size", 20))
	assert.Equal(t, 20, queryInt(c, "limit", 20))
}
