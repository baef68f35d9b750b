package translations

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
)

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
	f := newFixture(t)
	router := mux.NewRouter()
	NewHandlers(f.service).RegisterRoutes(router)

	body := `{"key":"auth.login","locale_id":` + strconv.FormatInt(f.en, 10) +
		`,"value":"Login","tag_ids":[` + strconv.FormatInt(f.mobile, 10) + `]}`
	rec := do(router, http.MethodPost, "/translations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID             int64 `json:"id"`
			TranslationKey struct {
				Key string `json:"key"`
			} `json:"translation_key"`
			Locale struct {
				Code string `json:"code"`
			} `json:"locale"`
			Tags []struct {
				Name string `json:"name"`
			} `json:"tags"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "auth.login", created.Data.TranslationKey.Key)
	assert.Equal(t, "en", created.Data.Locale.Code)
	require.Len(t, created.Data.Tags, 1)
	assert.Equal(t, "mobile", created.Data.Tags[0].Name)
	path := "/translations/" + strconv.FormatInt(created.Data.ID, 10)

	rec = do(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPatch, path, `{"value":"Sign in","tag_ids":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"Sign in"`)
	assert.Contains(t, rec.Body.String(), `"tags":[]`)

	rec = do(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 3, f.inv.count())
}

func TestHandlers_Errors(t *testing.T) {
	f := newFixture(t)
	router := mux.NewRouter()
	NewHandlers(f.service).RegisterRoutes(router)

	rec := do(router, http.MethodPost, "/translations", `{"value":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"The given data was invalid."`)
	assert.Contains(t, rec.Body.String(), MsgKeyRequired)

	rec = do(router, http.MethodPost, "/translations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPut, "/translations/1", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgFieldsRequired)

	rec = do(router, http.MethodGet, "/translations/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodDelete, "/translations/77", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
