package session

import "sudooom.im.mafia/internal/game"

const (
	// codeAlphabet 去掉了容易混淆的 I、O、0、1
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	// maxCodeAttempts 房间码冲突时的最大重试次数
	maxCodeAttempts = 5
)

// newRoomCode 生成房间码
func newRoomCode(rng game.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
