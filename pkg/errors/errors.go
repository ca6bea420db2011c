// Package errors: TFT 코치 서비스 전체에서 사용되는 에러 타입들을 정의한다.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrNotFound: 외부 API가 404를 반환했을 때의 센티널.
// 클라이언트는 이를 에러가 아닌 "없음"으로 변환하므로 호출자에게 전파되는 일은 드물다.
var ErrNotFound = stderrors.New("resource not found")

// UnauthorizedError: API 자격 증명이 거부된 경우 (401/403). 재시도하지 않는다.
type UnauthorizedError struct {
	Operation  string
	StatusCode int
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized operation=%s status=%d", e.Operation, e.StatusCode)
}

// NewUnauthorizedError: 자격 증명 거부 에러를 생성한다.
func NewUnauthorizedError(operation string, statusCode int) *UnauthorizedError {
	return &UnauthorizedError{Operation: operation, StatusCode: statusCode}
}

// RateLimitError: 재시도 한도까지 429를 반환받아 요청을 포기한 경우
type RateLimitError struct {
	Operation  string
	RetryAfter time.Duration // 서버가 마지막으로 지시한 대기 시간
	Attempts   int
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("rate limited operation=%s attempts=%d retry_after=%s", e.Operation, e.Attempts, e.RetryAfter)
}

// NewRateLimitError: 레이트 리밋 소진 에러를 생성한다.
func NewRateLimitError(operation string, retryAfter time.Duration, attempts int) *RateLimitError {
	return &RateLimitError{Operation: operation, RetryAfter: retryAfter, Attempts: attempts}
}

// TransientError: 네트워크 장애 또는 5xx가 재시도 한도까지 반복된 경우
type TransientError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e TransientError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transient failure operation=%s attempts=%d", e.Operation, e.Attempts)
	}
	return fmt.Sprintf("transient failure operation=%s attempts=%d: %v", e.Operation, e.Attempts, e.Err)
}

func (e TransientError) Unwrap() error { return e.Err }

// NewTransientError: 일시 장애 에러를 생성한다.
func NewTransientError(operation string, attempts int, cause error) *TransientError {
	return &TransientError{Operation: operation, Attempts: attempts, Err: cause}
}

// APIError: 재시도 대상이 아닌 4xx 등 기타 API 응답 에러
type APIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e APIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("api error operation=%s status=%d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("api error operation=%s status=%d: %v", e.Operation, e.StatusCode, e.Err)
}

func (e APIError) Unwrap() error { return e.Err }

// NewAPIError: API 에러를 생성한다.
func NewAPIError(operation string, statusCode int, cause error) *APIError {
	return &APIError{Operation: operation, StatusCode: statusCode, Err: cause}
}

// ValidationError: 입력 검증 실패 에러. I/O 이전에 순수 함수 단계에서 반환된다.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error field=%s: %s", e.Field, e.Message)
}

// NewValidationError: 검증 에러를 생성한다.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError: 중복 키 등 예상 가능한 저장소 충돌.
// 브리지 테이블 같은 best-effort 쓰기에서는 호출부가 무시한다.
type ConflictError struct {
	Table string
	Key   string
	Err   error
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("persistence conflict table=%s key=%s: %v", e.Table, e.Key, e.Err)
}

func (e ConflictError) Unwrap() error { return e.Err }

// NewConflictError: 저장소 충돌 에러를 생성한다.
func NewConflictError(table, key string, cause error) *ConflictError {
	return &ConflictError{Table: table, Key: key, Err: cause}
}

// CacheError: 캐시 작업 중 발생한 에러
type CacheError struct {
	Operation string // get, set, delete 등
	Key       string
	Err       error
}

func (e CacheError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache error operation=%s key=%s", e.Operation, e.Key)
	}
	return fmt.Sprintf("cache error operation=%s key=%s: %v", e.Operation, e.Key, e.Err)
}

func (e CacheError) Unwrap() error { return e.Err }

// NewCacheError: 캐시 에러를 생성한다.
func NewCacheError(operation, key string, cause error) *CacheError {
	return &CacheError{Operation: operation, Key: key, Err: cause}
}

// IsUnauthorized: 자격 증명 거부 여부를 판별한다. 싱크 전체를 중단해야 하는 유일한 축이다.
func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return stderrors.As(err, &target)
}

// IsValidation: 입력 검증 실패 여부를 판별한다. HTTP 표면에서 400으로 매핑된다.
func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsConflict: 예상된 중복 키 충돌 여부를 판별한다.
func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}
