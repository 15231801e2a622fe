package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opnlab/query-proxy/internal/apperr"
)

func TestWriteAppError_StatusMapping(t *testing.T) {
	cases := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindTimeout, http.StatusRequestTimeout},
		{apperr.KindTransport, http.StatusInternalServerError},
		{apperr.KindParse, http.StatusInternalServerError},
		{apperr.KindStore, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			w := httptest.NewRecorder()
			writeAppError(w, apperr.New(tc.kind, "boom"))

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestWriteAppError_ParseIncludesRaw(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, &apperr.Error{
		Kind:    apperr.KindParse,
		Message: "upstream response is not valid JSON",
		Raw:     "<html>maintenance</html>",
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "<html>maintenance</html>", body["raw"])
	assert.NotEmpty(t, body["error"])
}

func TestWriteAppError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, errors.New("unexpected"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
