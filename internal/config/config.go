package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"resume-match-go/internal/logger"

	"gopkg.in/yaml.v3"
)

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Address string `yaml:"address"`  // 监听地址，如 ":8080"
	APIKey  string `yaml:"api_key"`  // keyauth中间件使用的API密钥
	AuthOn  bool   `yaml:"auth_on"`  // 是否启用API密钥认证
	BaseDir string `yaml:"base_dir"` // 上传临时目录
}

// MySQLConfig MySQL配置
type MySQLConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	Database              string `yaml:"database"`
	MaxIdleConns          int    `yaml:"max_idle_conns"`
	MaxOpenConns          int    `yaml:"max_open_conns"`
	ConnMaxLifetimeMinutes int   `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int   `yaml:"conn_max_idle_time_minutes"`
	ConnectTimeoutSeconds  int   `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds     int   `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int   `yaml:"write_timeout_seconds"`
	LogLevel               int   `yaml:"log_level"` // 1=Silent 2=Error 3=Warn 4=Info
}

// RedisConfig Redis配置
type RedisConfig struct {
	Address      string `yaml:"address"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// MD5去重记录过期时间(天)
	MD5RecordExpireDays int `yaml:"md5_record_expire_days"`
}

// MinIOConfig MinIO对象存储配置
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	ResumeBucket    string `yaml:"resume_bucket"` // 原始简历文件桶
}

// RabbitMQConfig RabbitMQ配置
type RabbitMQConfig struct {
	URL               string `yaml:"url"`
	MatchQueue        string `yaml:"match_queue"`         // 匹配计算任务队列
	PrefetchCount     int    `yaml:"prefetch_count"`      // 消费者预取数量
	ReconnectSeconds  int    `yaml:"reconnect_seconds"`   // 断线重连间隔(秒)
	PublishTimeoutSec int    `yaml:"publish_timeout_sec"` // 发布超时(秒)
}

// EmbeddingConfig 向量嵌入服务配置（Ollama兼容端点）
type EmbeddingConfig struct {
	BaseURL        string `yaml:"base_url"` // 如 http://localhost:11434
	Model          string `yaml:"model"`    // 如 nomic-embed-text
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	// RequestsPerMinute 对嵌入服务的限流阈值，0表示不限流
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// ParserConfig 简历解析配置
type ParserConfig struct {
	FilterStringsPath string `yaml:"filter_strings_path"` // 过滤短语文件路径，为空则跳过该步骤
	DefaultIntensity  string `yaml:"default_intensity"`   // 默认清洗强度: light/medium/aggressive
	MaxTokens         int    `yaml:"max_tokens"`          // 嵌入文本的token预算
}

// TracingConfig OpenTelemetry追踪配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"` // OTLP gRPC端点
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Config 应用程序配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Parser    ParserConfig    `yaml:"parser"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logger    logger.Config   `yaml:"logger"`
}

// LoadConfig 从指定路径加载配置；路径为空时在常见位置查找
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-match", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			// 找不到配置文件时使用内置默认值
			cfg := &Config{}
			cfg.applyDefaults()
			cfg.applyEnvOverrides()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyDefaults 填充未配置项的默认值
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 10
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 100
	}
	if c.MySQL.ConnectTimeoutSeconds == 0 {
		c.MySQL.ConnectTimeoutSeconds = 10
	}
	if c.MySQL.ReadTimeoutSeconds == 0 {
		c.MySQL.ReadTimeoutSeconds = 30
	}
	if c.MySQL.WriteTimeoutSeconds == 0 {
		c.MySQL.WriteTimeoutSeconds = 30
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Redis.MD5RecordExpireDays == 0 {
		c.Redis.MD5RecordExpireDays = 30
	}
	if c.RabbitMQ.MatchQueue == "" {
		c.RabbitMQ.MatchQueue = "match.jobs"
	}
	if c.RabbitMQ.PrefetchCount == 0 {
		c.RabbitMQ.PrefetchCount = 1
	}
	if c.RabbitMQ.ReconnectSeconds == 0 {
		c.RabbitMQ.ReconnectSeconds = 5
	}
	if c.RabbitMQ.PublishTimeoutSec == 0 {
		c.RabbitMQ.PublishTimeoutSec = 10
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://localhost:11434"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.TimeoutSeconds == 0 {
		c.Embedding.TimeoutSeconds = 30
	}
	if c.Embedding.MaxRetries == 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Parser.DefaultIntensity == "" {
		c.Parser.DefaultIntensity = "medium"
	}
	if c.Parser.MaxTokens == 0 {
		c.Parser.MaxTokens = 2000
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "resume-match-go"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 0.1
	}
	if c.MinIO.ResumeBucket == "" {
		c.MinIO.ResumeBucket = "resume-originals"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

// applyEnvOverrides 从环境变量覆盖敏感配置，便于容器化部署
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MySQL.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.MinIO.SecretAccessKey = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("MD5_EXPIRE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Redis.MD5RecordExpireDays = days
		}
	}
}
