package redis

import (
	"fmt"
	"time"
)

const (
	// SessionKeyPrefix 会话文档 Redis Key 前缀
	SessionKeyPrefix = "mafia:session:"

	// SessionCodeKeyPrefix 房间码索引 Redis Key 前缀
	SessionCodeKeyPrefix = "mafia:session:code:"

	// SessionTTL 会话文档 TTL，每次写入续期
	SessionTTL = 48 * time.Hour
)

// BuildSessionKey 构建会话文档 Key
// Key: mafia:session:{sessionId}
func BuildSessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", SessionKeyPrefix, sessionID)
}

// BuildSessionCodeKey 构建房间码索引 Key
// Key: mafia:session:code:{code}，值为会话ID
func BuildSessionCodeKey(code string) string {
	return fmt.Sprintf("%s%s", SessionCodeKeyPrefix, code)
}
