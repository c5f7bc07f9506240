package game

import (
	"errors"
	"fmt"
)

// GameError 游戏错误类型
// 所有错误都只影响当前请求，调用方按 Code 区分处理
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误码匹配，带上下文的副本仍能与哨兵错误比较
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 返回附带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回附带上下文信息的副本
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	c.Context[key] = value
	return c
}

func (e *GameError) clone() *GameError {
	c := &GameError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: make(map[string]any, len(e.Context)+1),
	}
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return c
}

// CodeOf 取错误码，非 GameError 返回空字符串
func CodeOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// 查找相关错误
var (
	ErrNotFound = NewGameError("NOT_FOUND", "session or player not found")
)

// 大厅相关错误
var (
	ErrInsufficientPlayers = NewGameError("INSUFFICIENT_PLAYERS", "at least 7 players are required")
	ErrAlreadyAssigned     = NewGameError("ALREADY_ASSIGNED", "roles have already been assigned")
	ErrDuplicateName       = NewGameError("DUPLICATE_NAME", "name already taken in this game")
	ErrSessionFull         = NewGameError("SESSION_FULL", "the game is full")
	ErrNotHost             = NewGameError("NOT_HOST", "only the host can do this")
	ErrInvalidName         = NewGameError("INVALID_NAME", "player name must be 1 to 32 characters")
)

// 阶段相关错误
var (
	ErrGameAlreadyStarted = NewGameError("GAME_ALREADY_STARTED", "the game has already started")
	ErrGameAlreadyEnded   = NewGameError("GAME_ALREADY_ENDED", "the game has already ended")
	ErrGameNotStarted     = NewGameError("GAME_NOT_STARTED", "the game has not started yet")
	ErrIllegalTarget      = NewGameError("ILLEGAL_TARGET", "action not allowed for this player, phase or target")
	ErrNotAllReady        = NewGameError("NOT_ALL_READY", "not every living player is ready")
)

// 并发与存储相关错误
var (
	// ErrConcurrentAdvancementLost 阶段已被其他调用方推进，属于正常竞争结果
	ErrConcurrentAdvancementLost = NewGameError("CONCURRENT_ADVANCEMENT_LOST", "phase was already advanced")
	ErrStoreUnavailable          = NewGameError("STORE_UNAVAILABLE", "session store unavailable")
	// ErrSessionBusy 写入多次输给并发写入者，存储本身可用，调用方可以直接重试
	ErrSessionBusy               = NewGameError("SESSION_BUSY", "game is busy, please retry")
)
