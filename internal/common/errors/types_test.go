package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "configuration is invalid",
			},
			want: "config: configuration is invalid",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConnection,
				Message: "token request failed",
				Cause:   errors.New("network timeout"),
			},
			want: "connection: token request failed: cause=network timeout",
		},
		{
			name: "error with context",
			appError: &AppError{
				Type:    ErrTypeUpstream,
				Message: "lead creation rejected by CRM",
				Context: map[string]interface{}{
					"status": 400,
				},
			},
			want: "upstream: lead creation rejected by CRM: context={status=400}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appError := &AppError{
		Type:    ErrTypeInternal,
		Message: "wrapper",
		Cause:   cause,
	}

	if got := appError.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	if !errors.Is(appError, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{"validation", ValidationError("bad input"), ErrTypeValidation},
		{"auth", AuthError("exchange failed", nil), ErrTypeAuth},
		{"upstream", UpstreamError("rejected", nil), ErrTypeUpstream},
		{"method not allowed", MethodNotAllowedError(), ErrTypeMethodNotAllowed},
		{"config", ConfigError("missing"), ErrTypeConfig},
		{"connection", ConnectionError("dial failed", nil), ErrTypeConnection},
		{"rate limit", RateLimitError("leads"), ErrTypeRateLimit},
		{"internal", InternalError("boom", nil), ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.want {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.want)
			}
		})
	}
}

func TestMethodNotAllowedError_Message(t *testing.T) {
	err := MethodNotAllowedError()
	if err.Message != "Method not allowed" {
		t.Errorf("Message = %q, want %q", err.Message, "Method not allowed")
	}
}

func TestIsType(t *testing.T) {
	err := AuthError("failed", nil)

	if !IsType(err, ErrTypeAuth) {
		t.Error("IsType should report authentication errors")
	}
	if IsType(err, ErrTypeValidation) {
		t.Error("IsType should not match other types")
	}
	if IsType(nil, ErrTypeAuth) {
		t.Error("IsType should be false for nil")
	}
	if IsType(errors.New("plain"), ErrTypeAuth) {
		t.Error("IsType should be false for plain errors")
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(ValidationError("x")); got != ErrTypeValidation {
		t.Errorf("GetType = %v, want %v", got, ErrTypeValidation)
	}
	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("GetType for plain error = %v, want %v", got, ErrTypeInternal)
	}
	if got := GetType(nil); got != ErrorType("") {
		t.Errorf("GetType for nil = %v, want empty", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to 400", ValidationError("bad"), http.StatusBadRequest},
		{"method not allowed maps to 405", MethodNotAllowedError(), http.StatusMethodNotAllowed},
		{"rate limit maps to 429", RateLimitError("leads"), http.StatusTooManyRequests},
		{"auth maps to 500", AuthError("failed", nil), http.StatusInternalServerError},
		{"upstream maps to 500", UpstreamError("rejected", nil), http.StatusInternalServerError},
		{"plain error maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
