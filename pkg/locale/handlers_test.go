package locale

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage/storagetest"
)

func newTestRouter(t *testing.T) (*mux.Router, *fakeInvalidator) {
	t.Helper()
	inv := &fakeInvalidator{}
	router := mux.NewRouter()
	NewHandlers(NewStore(storagetest.New(t), inv, nil)).RegisterRoutes(router)
	return router, inv
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	req = req.WithContext(observability.WithLogger(req.Context(), logger))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Lifecycle(t *testing.T) {
	router, inv := newTestRouter(t)

	rec := do(router, http.MethodPost, "/locales", `{"code":"EN","name":"English"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID   int64  `json:"id"`
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "en", created.Data.Code)
	path := "/locales/" + strconv.FormatInt(created.Data.ID, 10)

	rec = do(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPut, path, `{"code":"en-gb"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"en-gb"`)

	rec = do(router, http.MethodGet, "/locales", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"meta":{"current_page":1,"per_page":50,"total":1,"last_page":1}`)

	rec = do(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, int64(3), inv.bumps.Load())

	rec = do(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/locales", `{"name":"English"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"message":"The given data was invalid.","errors":{"code":["The code field is required."]}}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/locales", `{"code":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/locales/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
