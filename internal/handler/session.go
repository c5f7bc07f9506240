package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"sudooom.im.mafia/internal/middleware"
	"sudooom.im.mafia/internal/model"
	"sudooom.im.mafia/internal/service/session"
	"sudooom.im.mafia/pkg/response"
	sharedErrors "sudooom.im.mafia/shared/errors"
)

// defaultMinPlayers 补充 AI 玩家时的默认目标人数
const defaultMinPlayers = 7

// SessionService 处理器依赖的会话服务
type SessionService interface {
	CreateSession(ctx context.Context, hostName string) (*session.JoinResult, error)
	JoinSession(ctx context.Context, code, playerName string) (*session.JoinResult, error)
	StartGame(ctx context.Context, sessionID, callerID string) (*model.SessionView, error)
	SubmitAction(ctx context.Context, sessionID, playerID, targetID string) (*model.SessionView, error)
	AddSyntheticPlayers(ctx context.Context, sessionID, callerID string, minCount int) (int, error)
	AdvancePhase(ctx context.Context, sessionID, callerID string) (*model.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*model.SessionView, error)
	GetLog(ctx context.Context, sessionID string) ([]model.LogEntry, error)
	GetInvestigations(ctx context.Context, sessionID, playerID string) ([]model.Investigation, error)
	GetRole(ctx context.Context, sessionID, playerID string) (model.Role, error)
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Name string `json:"name" binding:"required,max=32"`
}

// JoinSessionRequest 加入会话请求
type JoinSessionRequest struct {
	Code string `json:"code" binding:"required,len=6"`
	Name string `json:"name" binding:"required,max=32"`
}

// SubmitActionRequest 提交行动请求，target_id 为空表示弃权
type SubmitActionRequest struct {
	TargetID string `json:"target_id"`
}

// AddSyntheticRequest 补充 AI 玩家请求
type AddSyntheticRequest struct {
	MinPlayers int `json:"min_players" binding:"omitempty,min=1,max=12"`
}

// SessionHandler 会话处理器
type SessionHandler struct {
	sessionService SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create 创建会话
// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, sharedErrors.ErrInvalidParams, err.Error())
		return
	}

	result, err := h.sessionService.CreateSession(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Join 通过房间码加入会话
// POST /api/v1/sessions/join
func (h *SessionHandler) Join(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, sharedErrors.ErrInvalidParams, err.Error())
		return
	}

	result, err := h.sessionService.JoinSession(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 获取会话公开视图
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessionService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Log 获取叙事日志
// GET /api/v1/sessions/:id/log
func (h *SessionHandler) Log(c *gin.Context) {
	entries, err := h.sessionService.GetLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": entries})
}

// Me 获取本人角色与调查结果
// GET /api/v1/sessions/:id/me
func (h *SessionHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	playerID := middleware.GetPlayerID(c)

	role, err := h.sessionService.GetRole(ctx, sessionID, playerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	investigations, err := h.sessionService.GetInvestigations(ctx, sessionID, playerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"player_id":      playerID,
		"role":           role,
		"investigations": investigations,
	})
}

// Start 房主开始游戏
// POST /api/v1/sessions/:id/start
func (h *SessionHandler) Start(c *gin.Context) {
	view, err := h.sessionService.StartGame(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Submit 提交本阶段行动
// POST /api/v1/sessions/:id/actions
func (h *SessionHandler) Submit(c *gin.Context) {
	var req SubmitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, sharedErrors.ErrInvalidParams, err.Error())
		return
	}

	view, err := h.sessionService.SubmitAction(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c), req.TargetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// AddSynthetic 房主补充 AI 玩家
// POST /api/v1/sessions/:id/synthetic
func (h *SessionHandler) AddSynthetic(c *gin.Context) {
	var req AddSyntheticRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithMsg(c, sharedErrors.ErrInvalidParams, err.Error())
			return
		}
	}
	if req.MinPlayers == 0 {
		req.MinPlayers = defaultMinPlayers
	}

	added, err := h.sessionService.AddSyntheticPlayers(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c), req.MinPlayers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"added": added})
}

// Advance 房主推进阶段
// POST /api/v1/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	view, err := h.sessionService.AdvancePhase(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
