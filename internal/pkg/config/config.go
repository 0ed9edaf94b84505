// internal/pkg/config/config.go
package config

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config 描述了整个平台共享的基础设施配置。
// 每个服务只读取自己关心的部分，但配置文件是统一的。
type Config struct {
	Infra struct {
		Mysql struct {
			Addr     string `yaml:"addr"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	Broker struct {
		// 发布/消费失败时的最大重试次数，超过后视为致命错误
		MaxRetries int `yaml:"maxRetries"`
	} `yaml:"broker"`

	Loyalty struct {
		// 验证结果缓存的默认 TTL（秒）
		PromoCacheTTLSeconds int `yaml:"promoCacheTTLSeconds"`
	} `yaml:"loyalty"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Load 从 CONFIG_FILE 指定的 YAML 文件加载配置，环境变量可覆盖关键项。
// 配置在进程启动时加载一次，之后通过 GetCurrentConfig 读取。
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg, nil
}

// GetCurrentConfig 返回当前生效的配置。必须先调用 Load。
func GetCurrentConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		panic("config: Load must be called before GetCurrentConfig")
	}
	return current
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Infra.Mysql.Addr = "localhost:3306"
	cfg.Infra.Mysql.User = "root"
	cfg.Infra.Mysql.Database = "promohub"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Broker.MaxRetries = 10
	cfg.Loyalty.PromoCacheTTLSeconds = 300
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYSQL_ADDR"); v != "" {
		cfg.Infra.Mysql.Addr = v
	}
	if v := os.Getenv("MYSQL_USER"); v != "" {
		cfg.Infra.Mysql.User = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		cfg.Infra.Mysql.Password = v
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		cfg.Infra.Mysql.Database = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("ZOOKEEPER_SERVERS"); v != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
}
