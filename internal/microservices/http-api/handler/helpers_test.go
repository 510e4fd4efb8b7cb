package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testUserID = "6f1c2a7e-4b8d-4c1e-9a2f-3d5e7b9c1a01"
	testBookID = "0b7e3c5a-9d1f-4e2b-8c6a-1f3d5b7a9c02"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// asUser stands in for Authenticate.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}

func pass(c *gin.Context) { c.Next() }

func performJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, into), string(env.Data))
}

func errorFields(env envelope) []string {
	out := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		out = append(out, e.Field)
	}
	return out
}
