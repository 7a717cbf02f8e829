// Package config 负责服务配置：YAML 文件 + 环境变量覆盖。
// 配置只在启动时读取一次，运行期不热更。
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config 是 bookrec 服务的全部配置。
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Cache   CacheConfig   `yaml:"cache"`
	Cascade CascadeConfig `yaml:"cascade"`
	Feast   FeastConfig   `yaml:"feast"`
	Log     LogConfig     `yaml:"log"`

	// Rules 是 CEL 规则表达式列表，命中的候选从最终结果中剔除。
	// 留空时级联输出即纯算法结果。
	Rules []string `yaml:"rules"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`

	// 超时单位均为秒
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	// Dir 是 books/ratings/tags/book_tags 四张 CSV 表所在目录
	Dir string `yaml:"dir"`

	// ModelPath 是训练好的 CF 模型 JSON 工件；留空或缺失时
	// CF 相关操作降级为不可用
	ModelPath string `yaml:"model_path"`
}

type CacheConfig struct {
	// Backend: none / memory / redis
	Backend string `yaml:"backend"`

	// TTL 是级联结果缓存的过期秒数
	TTL int `yaml:"ttl"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// CascadeConfig 是级联默认参数，与原系统请求默认值一致。
type CascadeConfig struct {
	DefaultNCF int `yaml:"default_n_cf"`
	DefaultNCB int `yaml:"default_n_cb"`
}

type FeastConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Project   string `yaml:"project"`
	EntityKey string `yaml:"entity_key"`
	Feature   string `yaml:"feature"`
}

type LogConfig struct {
	// Level: debug / info / warn / error
	Level string `yaml:"level"`
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
		},
		Data: DataConfig{
			Dir:       "data",
			ModelPath: "data/cf_model.json",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     300,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379"},
		},
		Cascade: CascadeConfig{
			DefaultNCF: 2,
			DefaultNCB: 3,
		},
		Feast: FeastConfig{
			Port:      6565,
			EntityKey: "user_id",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 读取配置：默认值 ← YAML 文件 ← 环境变量，后者覆盖前者。
// path 为空或文件不存在时只用默认值与环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// 没有配置文件不是错误
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用环境变量覆盖（容器部署习惯）。
func (c *Config) applyEnv() {
	if v := os.Getenv("BOOKREC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("BOOKREC_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("BOOKREC_MODEL_PATH"); v != "" {
		c.Data.ModelPath = v
	}
	if v := os.Getenv("BOOKREC_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("BOOKREC_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("BOOKREC_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.DB = db
		}
	}
	if v := os.Getenv("BOOKREC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BOOKREC_FEAST_HOST"); v != "" {
		c.Feast.Host = v
		c.Feast.Enabled = true
	}
}

// Validate 校验配置的静态约束。
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", "none", "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache backend %q (want none/memory/redis)", c.Cache.Backend)
	}
	if c.Cascade.DefaultNCF < 0 || c.Cascade.DefaultNCB < 0 {
		return fmt.Errorf("config: cascade defaults must be >= 0")
	}
	if c.Feast.Enabled && c.Feast.Feature == "" {
		return fmt.Errorf("config: feast.feature is required when feast is enabled")
	}
	return nil
}
