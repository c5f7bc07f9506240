package game

import (
	"math/rand"
	"sync"
	"time"
)

// Rand 随机源，平票裁决、角色洗牌和 AI 选目标都经过它，测试中可注入固定种子
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// LockedRand 并发安全的随机源
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand 以当前时间为种子创建随机源
func NewRand() *LockedRand {
	return NewSeededRand(time.Now().UnixNano())
}

// NewSeededRand 以固定种子创建随机源
func NewSeededRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
