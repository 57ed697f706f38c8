package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPopulatesHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeUnsupportedOutput, http.StatusBadRequest},
		{CodeProviderAuthFailed, http.StatusUnauthorized},
		{CodeAPIKeyMissing, http.StatusUnauthorized},
		{CodeProviderQuotaExceeded, http.StatusPaymentRequired},
		{CodeSessionNotFound, http.StatusNotFound},
		{CodeArtifactNotFound, http.StatusNotFound},
		{CodeBuildInProgress, http.StatusConflict},
		{CodeInvalidCanvasState, http.StatusConflict},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeSessionTimeout, http.StatusGatewayTimeout},
		{CodeRendererError, http.StatusServiceUnavailable},
		{CodeCacheError, http.StatusServiceUnavailable},
		{CodeRetryExhausted, http.StatusInternalServerError},
		{CodeTransformFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.code, "msg").HTTPStatus, "code %s", tt.code)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := Wrap(cause, CodeRendererError, "renderer unreachable")

	assert.ErrorIs(t, appErr, cause)
	assert.Contains(t, appErr.Error(), "renderer unreachable")
	assert.Contains(t, appErr.Error(), "connection refused")
}

func TestAsAppErrorNeverNil(t *testing.T) {
	appErr := AsAppError(errors.New("plain failure"))
	require.NotNil(t, appErr)
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)

	direct := New(CodeNotFound, "missing")
	assert.Same(t, direct, AsAppError(direct))
}

func TestWithDetail(t *testing.T) {
	appErr := New(CodeInvalidParam, "bad input").WithDetail("field sources is required")
	assert.Equal(t, "field sources is required", appErr.Detail)
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(ErrBuildInProgress))
	assert.False(t, IsAppError(errors.New("nope")))
}
