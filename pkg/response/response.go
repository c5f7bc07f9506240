package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.im.mafia/internal/game"
	sharedErrors "sudooom.im.mafia/shared/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// gameErrors 游戏错误码到对外错误码的映射
var gameErrors = map[string]*sharedErrors.AppError{
	game.ErrNotFound.Code:                  sharedErrors.ErrNotFound,
	game.ErrInvalidName.Code:               sharedErrors.ErrInvalidParams,
	game.ErrDuplicateName.Code:             sharedErrors.ErrDuplicateName,
	game.ErrSessionFull.Code:               sharedErrors.ErrSessionFull,
	game.ErrNotHost.Code:                   sharedErrors.ErrNotHost,
	game.ErrInsufficientPlayers.Code:       sharedErrors.ErrInsufficientPlayers,
	game.ErrAlreadyAssigned.Code:           sharedErrors.ErrAlreadyAssigned,
	game.ErrGameAlreadyStarted.Code:        sharedErrors.ErrGameAlreadyStarted,
	game.ErrGameAlreadyEnded.Code:          sharedErrors.ErrGameAlreadyEnded,
	game.ErrGameNotStarted.Code:            sharedErrors.ErrGameNotStarted,
	game.ErrIllegalTarget.Code:             sharedErrors.ErrIllegalTarget,
	game.ErrNotAllReady.Code:               sharedErrors.ErrNotAllReady,
	game.ErrConcurrentAdvancementLost.Code: sharedErrors.ErrAdvancementLost,
	game.ErrSessionBusy.Code:               sharedErrors.ErrSessionBusy,
	game.ErrStoreUnavailable.Code:          sharedErrors.ErrStoreUnavailable,
}

// ToAppError 把任意错误转换为对外错误，未知错误按服务器内部错误处理
func ToAppError(err error) *sharedErrors.AppError {
	if appErr, ok := err.(*sharedErrors.AppError); ok {
		return appErr
	}
	if mapped, ok := gameErrors[game.CodeOf(err)]; ok {
		return mapped.Wrap(err)
	}
	return sharedErrors.ErrServerError.Wrap(err)
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    sharedErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应，状态码取自对外错误定义
func Error(c *gin.Context, err error) {
	appErr := ToAppError(err)
	c.JSON(sharedErrors.GetHTTPStatus(appErr), Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    nil,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, appErr *sharedErrors.AppError, message string) {
	Error(c, appErr.WithMessage(message))
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	Error(c, sharedErrors.ErrUnauthorized)
}
