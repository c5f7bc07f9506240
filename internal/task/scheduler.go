package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrSchedulerRunning    = errors.New("调度器已经在运行中")
	ErrSchedulerNotRunning = errors.New("调度器未运行")
	ErrInvalidTask         = errors.New("任务不能为空且必须有ID")
	ErrTaskNotFound        = errors.New("任务不存在")
)

// Config 调度器配置
type Config struct {
	WorkerCount int           `mapstructure:"worker_count"`
	Tick        time.Duration `mapstructure:"tick"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// Scheduler 阶段截止调度器
// 时间轮负责计时，到期任务交给工作协程池执行
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建调度器
func NewScheduler(cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(cfg.Tick),
		workerPool: NewWorkerPool(cfg.WorkerCount, cfg.TaskTimeout),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default(),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.runningMu.Unlock()

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("任务调度器已启动", "tick", s.wheel.tick)
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := s.wheel.GetTicker()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if tasks := s.wheel.Tick(); len(tasks) > 0 {
				s.logger.Debug("时钟触发",
					"currentSlot", s.wheel.GetCurrentSlot(),
					"taskCount", len(tasks))
				s.workerPool.SubmitBatch(tasks)
			}
		}
	}
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.wheel.Stop()
	s.workerPool.Stop()

	s.logger.Info("任务调度器已停止")
}

// AddTask 添加任务，同ID任务会被替换
func (s *Scheduler) AddTask(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if task == nil || task.ID == "" {
		return ErrInvalidTask
	}

	s.wheel.AddTask(task)
	s.logger.Debug("添加任务",
		"taskID", task.ID,
		"delay", task.Delay)
	return nil
}

// RemoveTask 删除任务
func (s *Scheduler) RemoveTask(taskID string) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if !s.wheel.RemoveTask(taskID) {
		return ErrTaskNotFound
	}
	return nil
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// GetStats 获取调度器统计信息
func (s *Scheduler) GetStats() map[string]any {
	return map[string]any{
		"running":        s.IsRunning(),
		"currentSlot":    s.wheel.GetCurrentSlot(),
		"totalTaskCount": s.wheel.GetTotalTaskCount(),
		"workerCount":    s.workerPool.workerCount,
	}
}
