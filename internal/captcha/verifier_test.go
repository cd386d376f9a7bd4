package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptchaServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPVerifier_Success(t *testing.T) {
	server := newCaptchaServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostFormValue("secret"))
		assert.Equal(t, "challenge-token", r.PostFormValue("response"))
		assert.Equal(t, "1.2.3.4", r.PostFormValue("remoteip"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"action":  ActionTeacherRegistration,
		})
	})

	v := NewHTTPVerifier(Config{VerifyURL: server.URL, Secret: "secret-key"})
	ok, err := v.Verify(context.Background(), "challenge-token", ActionTeacherRegistration, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHTTPVerifier_Failure(t *testing.T) {
	server := newCaptchaServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     false,
			"error-codes": []string{"invalid-input-response"},
		})
	})

	v := NewHTTPVerifier(Config{VerifyURL: server.URL, Secret: "secret-key"})
	ok, err := v.Verify(context.Background(), "bad-token", ActionTeacherRegistration, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPVerifier_ActionMismatch(t *testing.T) {
	server := newCaptchaServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"action":  ActionPasswordReset,
		})
	})

	v := NewHTTPVerifier(Config{VerifyURL: server.URL, Secret: "secret-key"})
	ok, err := v.Verify(context.Background(), "token", ActionTeacherRegistration, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPVerifier_EmptyTokenFailsWithoutCall(t *testing.T) {
	called := false
	server := newCaptchaServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	v := NewHTTPVerifier(Config{VerifyURL: server.URL, Secret: "secret-key"})
	ok, err := v.Verify(context.Background(), "", ActionTeacherRegistration, "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, called)
}

func TestHTTPVerifier_ServiceErrorPropagates(t *testing.T) {
	server := newCaptchaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	v := NewHTTPVerifier(Config{VerifyURL: server.URL, Secret: "secret-key", Timeout: time.Second})
	_, err := v.Verify(context.Background(), "token", ActionTeacherRegistration, "")
	require.Error(t, err)
}

func TestStaticVerifier(t *testing.T) {
	ok, err := StaticVerifier{Result: true}.Verify(context.Background(), "x", "y", "z")
	require.NoError(t, err)
	assert.True(t, ok)
}
