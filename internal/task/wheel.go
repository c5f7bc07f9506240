package task

import (
	"sync"
	"time"
)

const (
	// SlotCount 时间轮槽位数量
	SlotCount = 60

	// DefaultTick 默认刻度
	DefaultTick = time.Second
)

// TimeWheel 单层时间轮
// 超过一圈的延迟通过任务上的圈数计数实现
type TimeWheel struct {
	slots       [SlotCount]*Slot
	tick        time.Duration
	mu          sync.Mutex
	currentSlot int
	index       map[string]int // taskID → 槽位
	ticker      *time.Ticker
}

// NewTimeWheel 创建时间轮
func NewTimeWheel(tick time.Duration) *TimeWheel {
	if tick <= 0 {
		tick = DefaultTick
	}
	tw := &TimeWheel{
		tick:   tick,
		index:  make(map[string]int),
		ticker: time.NewTicker(tick),
	}
	for i := 0; i < SlotCount; i++ {
		tw.slots[i] = NewSlot()
	}
	return tw
}

// ticksFor 延迟换算为刻度数，至少一格
func (tw *TimeWheel) ticksFor(delay time.Duration) int {
	ticks := int((delay + tw.tick - 1) / tw.tick)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// AddTask 添加任务，同ID任务已存在时先移除旧任务
func (tw *TimeWheel) AddTask(task *Task) {
	ticks := tw.ticksFor(task.Delay)

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[task.ID]; ok {
		tw.slots[old].RemoveTask(task.ID)
	}
	target := (tw.currentSlot + ticks) % SlotCount
	task.rounds = (ticks - 1) / SlotCount
	tw.slots[target].AddTask(task)
	tw.index[task.ID] = target
}

// RemoveTask 删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].RemoveTask(taskID)
}

// Tick 推进一格，返回到期任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.currentSlot = (tw.currentSlot + 1) % SlotCount
	due := tw.slots[tw.currentSlot].Collect()
	for _, task := range due {
		delete(tw.index, task.ID)
	}
	return due
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return tw.currentSlot
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	tw.ticker.Stop()
}

// GetTicker 获取定时器
func (tw *TimeWheel) GetTicker() *time.Ticker {
	return tw.ticker
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return len(tw.index)
}
