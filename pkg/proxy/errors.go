package proxy

import (
	"context"
	"errors"

	"mercator-hq/callisto/pkg/prompt"
	"mercator-hq/callisto/pkg/providers"
	"mercator-hq/callisto/pkg/proxy/types"
)

// HandleError converts the errors a request can fail with after admission
// into OpenAI-compatible error responses.
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var tplErr *prompt.TemplateError
	if errors.As(err, &tplErr) {
		return types.NewInvalidRequestError(tplErr.Error(), "messages", types.CodeTemplateError)
	}

	var bue *providers.BackendUnavailableError
	if errors.As(err, &bue) {
		return types.NewBadGatewayError(bue.Error())
	}

	var parseErr *providers.ParseError
	if errors.As(err, &parseErr) {
		return types.NewServerError(parseErr.Error(), types.CodeTranslationError)
	}

	var transErr *TranslationError
	if errors.As(err, &transErr) {
		return types.NewServerError(transErr.Error(), types.CodeTranslationError)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewBadGatewayError("Error communicating with llama.cpp server: " + err.Error())
	}

	// Default to internal server error for unknown errors
	return types.NewServerError(
		"An internal error occurred. Please try again later.",
		types.CodeInternalError,
	)
}

// ErrorKind names the class of err for logs and metrics.
func ErrorKind(err error) string {
	var (
		reqErr   *RequestError
		tplErr   *prompt.TemplateError
		bue      *providers.BackendUnavailableError
		parseErr *providers.ParseError
		transErr *TranslationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &reqErr):
		return "validation"
	case errors.As(err, &tplErr):
		return "template"
	case errors.As(err, &bue):
		return "backend_unavailable"
	case errors.As(err, &parseErr), errors.As(err, &transErr):
		return "translation"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
