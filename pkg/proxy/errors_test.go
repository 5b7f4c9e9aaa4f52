package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/prompt"
	"mercator-hq/callisto/pkg/providers"
	"mercator-hq/callisto/pkg/proxy/types"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
		wantPrefix string
		wantKind   string
	}{
		{
			name:       "validation",
			err:        unsupported("echo"),
			wantStatus: http.StatusBadRequest,
			wantType:   types.ErrorTypeInvalidRequest,
			wantCode:   types.CodeParameterNotSupported,
			wantPrefix: "Parameter echo is not supported",
			wantKind:   "validation",
		},
		{
			name:       "template",
			err:        fmt.Errorf("render: %w", &prompt.TemplateError{Message: "unexpected end of template"}),
			wantStatus: http.StatusBadRequest,
			wantType:   types.ErrorTypeInvalidRequest,
			wantCode:   types.CodeTemplateError,
			wantPrefix: "Template rendering error: unexpected end of template",
			wantKind:   "template",
		},
		{
			name:       "backend unavailable",
			err:        &providers.BackendUnavailableError{Backend: "llamacpp", Cause: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantType:   types.ErrorTypeBadGateway,
			wantCode:   types.CodeBackendUnavailable,
			wantPrefix: "Error communicating with llama.cpp server: connection refused",
			wantKind:   "backend_unavailable",
		},
		{
			name:       "parse",
			err:        &providers.ParseError{Backend: "llamacpp", Cause: errors.New("bad json")},
			wantStatus: http.StatusInternalServerError,
			wantType:   types.ErrorTypeServerError,
			wantCode:   types.CodeTranslationError,
			wantKind:   "translation",
		},
		{
			name:       "translation",
			err:        &TranslationError{Field: "completion_probabilities", Message: "missing"},
			wantStatus: http.StatusInternalServerError,
			wantType:   types.ErrorTypeServerError,
			wantCode:   types.CodeTranslationError,
			wantKind:   "translation",
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusBadGateway,
			wantType:   types.ErrorTypeBadGateway,
			wantCode:   types.CodeBackendUnavailable,
			wantKind:   "internal",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   types.ErrorTypeServerError,
			wantCode:   types.CodeInternalError,
			wantKind:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)
			if got := resp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, got)
			}
			if resp.Error.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, resp.Error.Type)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, resp.Error.Code)
			}
			if tt.wantPrefix != "" && !strings.HasPrefix(resp.Error.Message, tt.wantPrefix) {
				t.Errorf("expected message starting %q, got %q", tt.wantPrefix, resp.Error.Message)
			}
			if got := ErrorKind(tt.err); got != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, got)
			}
		})
	}
}
