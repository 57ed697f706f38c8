package node

import (
	"context"
	"errors"
	"strings"
)

func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "response_schema"):
		return true
	default:
		return false
	}
}

// IsAuthError 识别鉴权类失败：错误的 API Key、未授权等。
// 此类错误不重试，直接上报调用方。
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"):
		return true
	case strings.Contains(msg, "unauthorized"):
		return true
	case strings.Contains(msg, "invalid api key"):
		return true
	case strings.Contains(msg, "incorrect api key"):
		return true
	case strings.Contains(msg, "invalid_api_key"):
		return true
	case strings.Contains(msg, "authentication"):
		return true
	case strings.Contains(msg, "403") && strings.Contains(msg, "forbidden"):
		return true
	default:
		return false
	}
}

// IsQuotaError 识别配额/计费耗尽，与限流区分：配额错误不会因等待而恢复。
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient_quota"):
		return true
	case strings.Contains(msg, "quota"):
		return true
	case strings.Contains(msg, "billing"):
		return true
	case strings.Contains(msg, "exceeded your current"):
		return true
	default:
		return false
	}
}

func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if IsQuotaError(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit")
}

func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// IsRetryableError 判定是否值得重试：超时、限流、5xx、瞬时网络故障。
// 鉴权与配额错误永远不可重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthError(err) || IsQuotaError(err) {
		return false
	}
	if IsTimeoutError(err) || IsRateLimitError(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return true
	case strings.Contains(msg, "internal server error"):
		return true
	case strings.Contains(msg, "service unavailable"):
		return true
	case strings.Contains(msg, "connection reset"):
		return true
	case strings.Contains(msg, "connection refused"):
		return true
	case strings.Contains(msg, "temporarily unavailable"):
		return true
	case strings.Contains(msg, "eof"):
		return true
	default:
		return false
	}
}
