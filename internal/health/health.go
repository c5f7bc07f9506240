package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StateUp   = "connected"
	StateDown = "disconnected"
)

// probeTimeout 单个依赖检查超时
const probeTimeout = 2 * time.Second

// Probe 依赖检查函数
type Probe func(ctx context.Context) error

// Status 健康状态
type Status struct {
	Service    string            `json:"service"`
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

type component struct {
	name     string
	probe    Probe
	required bool
}

// Checker 健康检查器
// 只有 required 的依赖断开时服务才视为不健康
type Checker struct {
	service    string
	components []component
}

// NewChecker 创建健康检查器
func NewChecker(service string) *Checker {
	return &Checker{service: service}
}

// Register 注册依赖检查
func (h *Checker) Register(name string, probe Probe, required bool) {
	h.components = append(h.components, component{name: name, probe: probe, required: required})
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Service:    h.service,
		Healthy:    true,
		Components: make(map[string]string, len(h.components)),
	}

	for _, c := range h.components {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.probe(probeCtx)
		cancel()

		if err == nil {
			status.Components[c.name] = StateUp
			continue
		}
		status.Components[c.name] = StateDown
		if c.required {
			status.Healthy = false
		}
	}
	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy
}

// Handler gin 健康检查端点
func (h *Checker) Handler(c *gin.Context) {
	status := h.Check(c.Request.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// RedisProbe Redis 连通性检查
func RedisProbe(client *redis.Client) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// NATSProbe NATS 连接状态检查
func NATSProbe(nc *nats.Conn) Probe {
	return func(context.Context) error {
		if nc == nil || !nc.IsConnected() {
			return errors.New("nats not connected")
		}
		return nil
	}
}

// PostgresProbe PostgreSQL 连通性检查
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// Pinger 支持 PingContext 的连接，例如 *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SQLProbe database/sql 连通性检查
func SQLProbe(db Pinger) Probe {
	return db.PingContext
}
