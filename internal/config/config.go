package config

import (
	"time"

	"github.com/spf13/viper"
	"sudooom.im.mafia/internal/task"
	sharedConfig "sudooom.im.mafia/shared/config"
)

type Config struct {
	App       AppConfig                `mapstructure:"app"`
	JWT       JWTConfig                `mapstructure:"jwt"`
	Game      GameConfig               `mapstructure:"game"`
	Store     StoreConfig              `mapstructure:"store"`
	Feed      FeedConfig               `mapstructure:"feed"`
	Database  DatabaseConfig           `mapstructure:"database"`
	Redis     sharedConfig.RedisConfig `mapstructure:"redis"`
	NATS      sharedConfig.NATSConfig  `mapstructure:"nats"`
	Scheduler task.Config              `mapstructure:"scheduler"`
	CORS      CORSConfig               `mapstructure:"cors"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
	NodeID   int64  `mapstructure:"node_id"`
}

type JWTConfig struct {
	SecretKey    string        `mapstructure:"secret_key"`
	AccessExpire time.Duration `mapstructure:"access_expire"`
}

type GameConfig struct {
	PhaseDuration   time.Duration `mapstructure:"phase_duration"`
	EnforceDeadline bool          `mapstructure:"enforce_deadline"`
	MaxSettleRounds int           `mapstructure:"max_settle_rounds"`
}

// StoreConfig 会话存储，driver: redis | memory
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// FeedConfig 变更推送，driver: nats | memory
type FeedConfig struct {
	Driver      string `mapstructure:"driver"`
	WorkerCount int    `mapstructure:"worker_count"`
	BufferSize  int    `mapstructure:"buffer_size"`
}

// DatabaseConfig 游戏日志库，driver: postgres | sqlite | memory
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// Load 从指定路径加载配置，再用环境变量覆盖
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mafia")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("jwt.access_expire", 24*time.Hour)
	v.SetDefault("game.phase_duration", 60*time.Second)
	v.SetDefault("game.enforce_deadline", true)
	v.SetDefault("game.max_settle_rounds", 32)
	v.SetDefault("store.driver", "redis")
	v.SetDefault("feed.driver", "nats")
	v.SetDefault("feed.worker_count", 16)
	v.SetDefault("feed.buffer_size", 1024)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sqlite_path", "mafia.db")
	v.SetDefault("scheduler.worker_count", 10)
	v.SetDefault("scheduler.tick", time.Second)
	v.SetDefault("scheduler.task_timeout", 10*time.Second)
}

// applyEnv 从环境变量覆盖配置
func (c *Config) applyEnv() {
	// App
	c.App.Port = sharedConfig.GetEnvInt("MAFIA_PORT", c.App.Port)
	c.App.LogLevel = sharedConfig.GetEnv("MAFIA_LOG_LEVEL", c.App.LogLevel)
	c.App.NodeID = int64(sharedConfig.GetEnvInt("MAFIA_NODE_ID", int(c.App.NodeID)))

	// JWT
	c.JWT.SecretKey = sharedConfig.GetEnv("JWT_SECRET", c.JWT.SecretKey)
	c.JWT.AccessExpire = sharedConfig.GetEnvDuration("JWT_ACCESS_EXPIRE", c.JWT.AccessExpire)

	// Game
	c.Game.PhaseDuration = sharedConfig.GetEnvDuration("MAFIA_PHASE_DURATION", c.Game.PhaseDuration)
	c.Game.EnforceDeadline = sharedConfig.GetEnvBool("MAFIA_ENFORCE_DEADLINE", c.Game.EnforceDeadline)

	// Drivers
	c.Store.Driver = sharedConfig.GetEnv("MAFIA_STORE_DRIVER", c.Store.Driver)
	c.Feed.Driver = sharedConfig.GetEnv("MAFIA_FEED_DRIVER", c.Feed.Driver)
	c.Database.Driver = sharedConfig.GetEnv("MAFIA_DATABASE_DRIVER", c.Database.Driver)

	// Database
	c.Database.Host = sharedConfig.GetEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = sharedConfig.GetEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.User = sharedConfig.GetEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = sharedConfig.GetEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = sharedConfig.GetEnv("POSTGRES_DB", c.Database.Name)
	c.Database.SQLitePath = sharedConfig.GetEnv("SQLITE_PATH", c.Database.SQLitePath)

	// Redis
	c.Redis.Host = sharedConfig.GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = sharedConfig.GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = sharedConfig.GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = sharedConfig.GetEnvInt("REDIS_DB", c.Redis.DB)

	// NATS
	c.NATS.URL = sharedConfig.GetEnv("NATS_URL", c.NATS.URL)
}
