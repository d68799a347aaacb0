package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 远程仓库后端
const (
	BackendNone     = ""
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

const defaultJWTSecret = "change-me-in-production"

// Config 全局配置结构
// 设计说明:使用Viper管理配置,支持YAML文件、.env文件和环境变量覆盖
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 跨域配置(浏览器前端直接调用API时开启)
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// StorageConfig 本地数据文件
// 文件名同时作为远程仓库中的路径
type StorageConfig struct {
	Dir           string `mapstructure:"dir"`
	InventoryFile string `mapstructure:"inventory_file"`
	HistoryFile   string `mapstructure:"history_file"`
}

// RemoteConfig 远程仓库
// Backend为空表示只使用本地文件(local_only)
type RemoteConfig struct {
	Backend          string         `mapstructure:"backend"`
	PathPrefix       string         `mapstructure:"path_prefix"`
	Timeout          time.Duration  `mapstructure:"timeout"`
	Retries          uint64         `mapstructure:"retries"`
	RetryWait        time.Duration  `mapstructure:"retry_wait"`
	BreakerThreshold uint32         `mapstructure:"breaker_threshold"`
	BreakerTimeout   time.Duration  `mapstructure:"breaker_timeout"`
	Redis            RedisConfig    `mapstructure:"redis"`
	Database         DatabaseConfig `mapstructure:"database"`
}

// Enabled 是否配置了远程仓库
func (r RemoteConfig) Enabled() bool {
	return r.Backend != BackendNone
}

// Path 数据文件在远程仓库中的路径
func (r RemoteConfig) Path(name string) string {
	if r.PathPrefix == "" {
		return name
	}
	return strings.TrimSuffix(r.PathPrefix, "/") + "/" + name
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	Loc             string        `mapstructure:"loc"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"` // sqlite文件路径
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 按驱动生成连接字符串
// mysql: user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
// postgres: host=... port=... user=... password=... dbname=... sslmode=disable
// sqlite: 文件路径
func (d DatabaseConfig) DSN(driver string) string {
	switch driver {
	case BackendMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=%s",
			d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, url.QueryEscape(d.Loc))
	case BackendPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	default:
		return d.Path
	}
}

type SessionConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`  // debug | info | warn | error
	Format    string `mapstructure:"format"` // console | json
	WarnStack bool   `mapstructure:"warn_stack"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load 加载配置
// 优先级(高→低):环境变量 > .env > 配置文件 > 默认值
// 1. path非空时读取指定文件,否则在./config和当前目录查找config.yaml
// 2. 配置文件不存在时只使用默认值(CLI开箱即用)
// 3. 环境变量前缀PRESSLEDGER_,如PRESSLEDGER_REMOTE_BACKEND → remote.backend
func Load(path string) (*Config, error) {
	// .env只补充尚未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取.env失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix("PRESSLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.cors.allow_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors.allow_headers", []string{"Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("server.cors.expose_headers", []string{"X-Request-ID"})
	v.SetDefault("server.cors.max_age", 12*time.Hour)

	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.inventory_file", "inventory.csv")
	v.SetDefault("storage.history_file", "history.csv")

	v.SetDefault("remote.backend", BackendNone)
	v.SetDefault("remote.path_prefix", "pressledger")
	v.SetDefault("remote.timeout", 5*time.Second)
	v.SetDefault("remote.retries", 1)
	v.SetDefault("remote.retry_wait", 200*time.Millisecond)
	v.SetDefault("remote.breaker_threshold", 5)
	v.SetDefault("remote.breaker_timeout", 30*time.Second)
	v.SetDefault("remote.redis.host", "localhost")
	v.SetDefault("remote.redis.port", 6379)
	v.SetDefault("remote.redis.key_prefix", "pressledger")
	v.SetDefault("remote.redis.pool_size", 10)
	v.SetDefault("remote.redis.dial_timeout", 5*time.Second)
	v.SetDefault("remote.redis.read_timeout", 3*time.Second)
	v.SetDefault("remote.redis.write_timeout", 3*time.Second)
	v.SetDefault("remote.database.charset", "utf8mb4")
	v.SetDefault("remote.database.loc", "Local")
	v.SetDefault("remote.database.sslmode", "disable")
	v.SetDefault("remote.database.path", "pressledger.db")
	v.SetDefault("remote.database.max_open_conns", 10)
	v.SetDefault("remote.database.max_idle_conns", 2)
	v.SetDefault("remote.database.conn_max_lifetime", time.Hour)

	v.SetDefault("session.jwt_secret", defaultJWTSecret)
	v.SetDefault("session.ttl", 8*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "pressledger")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	switch cfg.Remote.Backend {
	case BackendNone, BackendMemory, BackendRedis, BackendMySQL, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("不支持的远程仓库后端: %q", cfg.Remote.Backend)
	}
	if cfg.Remote.Retries > 1 {
		return fmt.Errorf("远程读取最多重试1次: %d", cfg.Remote.Retries)
	}

	if cfg.Storage.InventoryFile == "" || cfg.Storage.HistoryFile == "" {
		return fmt.Errorf("数据文件名不能为空")
	}
	if cfg.Storage.InventoryFile == cfg.Storage.HistoryFile {
		return fmt.Errorf("库存表和交易记录不能使用同一个文件: %s", cfg.Storage.InventoryFile)
	}

	if cfg.Session.JWTSecret == defaultJWTSecret && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改会话密钥")
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("会话有效期必须大于0")
	}

	// 允许携带认证信息时Origin不能是"*"
	if cors := cfg.Server.CORS; cors.Enabled && cors.AllowCredentials {
		for _, origin := range cors.AllowOrigins {
			if origin == "*" {
				return fmt.Errorf("allow_credentials开启时allow_origins不能为*")
			}
		}
	}

	return nil
}
