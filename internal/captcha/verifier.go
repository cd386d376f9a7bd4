package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Actions embedded in captcha challenges. The verification service rejects
// tokens whose action does not match the protected endpoint.
const (
	ActionTeacherRegistration = "teacher_registration"
	ActionPasswordReset       = "password_reset"
)

// Verifier checks human-verification challenge tokens against the external
// captcha service.
type Verifier interface {
	Verify(ctx context.Context, token, action, remoteIP string) (bool, error)
}

type Config struct {
	VerifyURL string
	Secret    string
	Timeout   time.Duration
}

type httpVerifier struct {
	config     Config
	httpClient *http.Client
}

func NewHTTPVerifier(config Config) Verifier {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpVerifier{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the challenge token to the captcha service. A false return
// with nil error means the human failed the challenge; a non-nil error means
// the verification service itself could not answer.
func (v *httpVerifier) Verify(ctx context.Context, token, action, remoteIP string) (bool, error) {
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.config.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("captcha service returned status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	if !result.Success {
		return false, nil
	}
	if result.Action != "" && result.Action != action {
		return false, nil
	}
	return true, nil
}

// StaticVerifier answers every check with a fixed result. Used in tests and
// local development where no captcha service runs.
type StaticVerifier struct {
	Result bool
	Err    error
}

func (s StaticVerifier) Verify(ctx context.Context, token, action, remoteIP string) (bool, error) {
	return s.Result, s.Err
}
