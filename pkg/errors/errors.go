// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 凭证/配额错误 (2xxx) 不可重试，立即终止
	CodeProviderAuthFailed    ErrorCode = "2001"
	CodeProviderQuotaExceeded ErrorCode = "2002"
	CodeAPIKeyMissing         ErrorCode = "2003"

	// 输入错误 (3xxx) 调用方问题，不可重试
	CodeUnsupportedSource ErrorCode = "3001"
	CodeUnsupportedOutput ErrorCode = "3002"
	CodeExtractionFailed  ErrorCode = "3003"
	CodeSessionNotFound   ErrorCode = "3004"
	CodeArtifactNotFound  ErrorCode = "3005"

	// 生成业务错误 (4xxx)
	CodeGenerationFailed   ErrorCode = "4001"
	CodeTransformFailed    ErrorCode = "4002"
	CodeRenderFailed       ErrorCode = "4003"
	CodeValidationFailed   ErrorCode = "4004"
	CodeRetryExhausted     ErrorCode = "4005"
	CodeSessionTimeout     ErrorCode = "4006"
	CodeSessionCancelled   ErrorCode = "4007"
	CodeBuildInProgress    ErrorCode = "4008"
	CodeInvalidCanvasState ErrorCode = "4009"
	CodeCanvasAnswerFailed ErrorCode = "4010"
	CodeReportFailed       ErrorCode = "4011"

	// 外部服务错误 (5xxx)
	CodeCacheError       ErrorCode = "5001"
	CodeDatabaseError    ErrorCode = "5002"
	CodeExtractorError   ErrorCode = "5003"
	CodeRendererError    ErrorCode = "5004"
	CodeLLMProviderError ErrorCode = "5005"
	CodeLLMTimeout       ErrorCode = "5006"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeUnsupportedSource, CodeUnsupportedOutput, CodeExtractionFailed:
		return http.StatusBadRequest
	case CodeProviderAuthFailed, CodeAPIKeyMissing:
		return http.StatusUnauthorized
	case CodeProviderQuotaExceeded:
		return http.StatusPaymentRequired
	case CodeNotFound, CodeSessionNotFound, CodeArtifactNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeBuildInProgress, CodeInvalidCanvasState:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeSessionTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable, CodeCacheError, CodeExtractorError, CodeRendererError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrAPIKeyMissing    = New(CodeAPIKeyMissing, "provider api key missing")
	ErrSessionNotFound  = New(CodeSessionNotFound, "session not found")
	ErrArtifactNotFound = New(CodeArtifactNotFound, "artifact not found")

	ErrGenerationFailed   = New(CodeGenerationFailed, "generation failed")
	ErrRetryExhausted     = New(CodeRetryExhausted, "retry budget exhausted")
	ErrBuildInProgress    = New(CodeBuildInProgress, "an identical build is already in progress")
	ErrInvalidCanvasState = New(CodeInvalidCanvasState, "canvas session is not in a valid state for this operation")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
