package nats

// NATS Subject 常量定义
const (
	// SubjectSessionPrefix 会话 Subject 前缀
	// 会话级事件: mafia.session.{session_id}.events
	// 阶段生命周期事件: mafia.session.{session_id}.phase
	// 玩家私有事件: mafia.session.{session_id}.player.{player_id}
	SubjectSessionPrefix = "mafia.session."
	SubjectEventsSuffix  = ".events"
	SubjectPhaseSuffix   = ".phase"
	SubjectPlayerInfix   = ".player."

	// SubjectPhaseWildcard 所有会话的阶段生命周期事件
	SubjectPhaseWildcard = "mafia.session.*.phase"

	// QueueGroupDeadline 阶段截止调度队列组名称，多实例时每个事件只由一个实例处理
	QueueGroupDeadline = "mafia-deadline"
)

// BuildSessionEventsSubject 构建会话级事件 Subject
func BuildSessionEventsSubject(sessionID string) string {
	return SubjectSessionPrefix + sessionID + SubjectEventsSuffix
}

// BuildPhaseSubject 构建阶段生命周期事件 Subject
func BuildPhaseSubject(sessionID string) string {
	return SubjectSessionPrefix + sessionID + SubjectPhaseSuffix
}

// BuildPlayerSubject 构建玩家私有事件 Subject
func BuildPlayerSubject(sessionID, playerID string) string {
	return SubjectSessionPrefix + sessionID + SubjectPlayerInfix + playerID
}
