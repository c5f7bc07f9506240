package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用错误类型
// 对外响应统一使用数字错误码，HTTPStatus 决定响应状态码
type AppError struct {
	Code       int    // 错误码
	Message    string // 用户可见的错误消息
	HTTPStatus int    // HTTP 状态码
	Err        error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, httpStatus int, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		Err:        err,
	}
}

// WithMessage 替换用户可见消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    message,
		HTTPStatus: e.HTTPStatus,
		Err:        e.Err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// GetHTTPStatus 获取 HTTP 状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeUnauthorized = 10001
	CodeTokenInvalid = 10003
	CodeTokenExpired = 10004
	CodeForbidden    = 10005

	// 参数相关 11000-11999
	CodeInvalidParams = 11002

	// 大厅相关 20000-20999
	CodeNotFound            = 20001
	CodeDuplicateName       = 20002
	CodeSessionFull         = 20003
	CodeNotHost             = 20004
	CodeInsufficientPlayers = 20005
	CodeAlreadyAssigned     = 20006

	// 对局相关 21000-21999
	CodeGameAlreadyStarted = 21001
	CodeGameAlreadyEnded   = 21002
	CodeGameNotStarted     = 21003
	CodeIllegalTarget      = 21004
	CodeNotAllReady        = 21005
	CodeAdvancementLost    = 21006
	CodeSessionBusy        = 21007

	// 系统错误 50000-50999
	CodeServerError      = 50001
	CodeStoreUnavailable = 50002
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrUnauthorized = NewError(CodeUnauthorized, http.StatusUnauthorized, "missing authorization token")
	ErrTokenInvalid = NewError(CodeTokenInvalid, http.StatusUnauthorized, "token is invalid")
	ErrTokenExpired = NewError(CodeTokenExpired, http.StatusUnauthorized, "token has expired")
	ErrForbidden    = NewError(CodeForbidden, http.StatusForbidden, "token does not belong to this game")
)

// 参数相关
var (
	ErrInvalidParams = NewError(CodeInvalidParams, http.StatusBadRequest, "invalid parameters")
)

// 大厅相关
var (
	ErrNotFound            = NewError(CodeNotFound, http.StatusNotFound, "game or player not found")
	ErrDuplicateName       = NewError(CodeDuplicateName, http.StatusConflict, "name already taken in this game")
	ErrSessionFull         = NewError(CodeSessionFull, http.StatusConflict, "the game is full")
	ErrNotHost             = NewError(CodeNotHost, http.StatusForbidden, "only the host can do this")
	ErrInsufficientPlayers = NewError(CodeInsufficientPlayers, http.StatusUnprocessableEntity, "at least 7 players are required")
	ErrAlreadyAssigned     = NewError(CodeAlreadyAssigned, http.StatusConflict, "roles have already been assigned")
)

// 对局相关
var (
	ErrGameAlreadyStarted = NewError(CodeGameAlreadyStarted, http.StatusConflict, "the game has already started")
	ErrGameAlreadyEnded   = NewError(CodeGameAlreadyEnded, http.StatusConflict, "the game has already ended")
	ErrGameNotStarted     = NewError(CodeGameNotStarted, http.StatusConflict, "the game has not started yet")
	ErrIllegalTarget      = NewError(CodeIllegalTarget, http.StatusUnprocessableEntity, "action not allowed")
	ErrNotAllReady        = NewError(CodeNotAllReady, http.StatusConflict, "not every living player is ready")
	ErrAdvancementLost    = NewError(CodeAdvancementLost, http.StatusConflict, "phase was already advanced")
	ErrSessionBusy        = NewError(CodeSessionBusy, http.StatusConflict, "game is busy, please retry")
)

// 系统相关
var (
	ErrServerError      = NewError(CodeServerError, http.StatusInternalServerError, "internal server error")
	ErrStoreUnavailable = NewError(CodeStoreUnavailable, http.StatusServiceUnavailable, "game store unavailable, please retry")
)
