package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase describes one call to a single handler
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	// ExpectedCode is the envelope error code; empty expects success
	ExpectedCode string
	Setup        func(t *testing.T, tc *TestContext)
	Validate     func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases runs each case as a subtest against handler
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase calls handler directly with the case's request
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}
	testCtx := NewTestContextWithRequest(t, NewJSONRequest(t, method, path, tc.Body, tc.Headers))
	if tc.Setup != nil {
		tc.Setup(t, testCtx)
	}

	handler(testCtx.Context)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, testCtx.ResponseCode(), "Unexpected status code")
	}
	if tc.ExpectedCode != "" {
		AssertErrorResponse(t, testCtx.ResponseBody(), tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

// NewJSONRequest builds a request whose body is body encoded as JSON
func NewJSONRequest(t *testing.T, method, path string, body any, headers map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = ToJSONReader(t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// Serve sends a JSON request through engine with an optional Authorization value
func Serve(t *testing.T, engine http.Handler, method, path string, body any, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	var headers map[string]string
	if authorization != "" {
		headers = map[string]string{"Authorization": authorization}
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, NewJSONRequest(t, method, path, body, headers))
	return w
}

// Envelope is the response shape shared by every API endpoint
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

// DecodeEnvelope parses body into an envelope carrying T
func DecodeEnvelope[T any](t *testing.T, body []byte) Envelope[T] {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "Failed to parse response envelope: %s", body)
	return env
}

// RequireData asserts a successful envelope and returns its data
func RequireData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	env := DecodeEnvelope[T](t, w.Body.Bytes())
	require.True(t, env.Success, "Expected success envelope: %s", w.Body.String())
	return env.Data
}

// AssertErrorResponse asserts body is a failed envelope with code
func AssertErrorResponse(t *testing.T, body []byte, expectedCode string) {
	t.Helper()
	env := DecodeEnvelope[json.RawMessage](t, body)
	assert.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, expectedCode, env.Error.Code, "Unexpected error code")
}

// ToJSONReader encodes v as a JSON reader
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
