package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Content   ContentConfig
	Schema    SchemaConfig
	Loader    LoaderConfig
	Redis     RedisConfig
	CacheTTLs CacheTTLConfig
	LLM       LLMConfig

	// File is the absolute path of the config file used, empty when none was found.
	File string
}

type AppConfig struct {
	Name    string
	Version string
}

type LoggerConfig struct {
	Level string
	Env   string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ContentConfig struct {
	Root  string
	Watch bool
}

// SchemaConfig points at an alternative schema file. Empty means the embedded one.
type SchemaConfig struct {
	Path string
}

type LoaderConfig struct {
	Workers int
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheTTLConfig holds TTLs for cached entries
type CacheTTLConfig struct {
	Catalog time.Duration
}

type LLMConfig struct {
	Provider     string
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	RetryDelay   time.Duration
	DelayBetween time.Duration
	OpenAI       OpenAIConfig
	Ollama       OllamaConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

// LoadConfig reads config.yaml from the working directory or ./configs.
func LoadConfig() (*Config, error) {
	return Load(".", "./configs")
}

// Load reads config.yaml from the first of paths that contains one. A missing
// file is not an error: defaults and environment variables still apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("JEMENTRAINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Version: v.GetString("app.version"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
		},
		Content: ContentConfig{
			Root:  v.GetString("content.root"),
			Watch: v.GetBool("content.watch"),
		},
		Schema: SchemaConfig{
			Path: v.GetString("schema.path"),
		},
		Loader: LoaderConfig{
			Workers: v.GetInt("loader.workers"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CacheTTLs: CacheTTLConfig{
			Catalog: v.GetDuration("cache_ttls.catalog"),
		},
		LLM: LLMConfig{
			Provider:     v.GetString("llm.provider"),
			Temperature:  v.GetFloat64("llm.temperature"),
			MaxTokens:    v.GetInt("llm.max_tokens"),
			MaxRetries:   v.GetInt("llm.max_retries"),
			RetryDelay:   v.GetDuration("llm.retry_delay"),
			DelayBetween: v.GetDuration("llm.delay_between"),
			OpenAI: OpenAIConfig{
				APIKey: v.GetString("llm.openai.api_key"),
				Model:  v.GetString("llm.openai.model"),
			},
			Ollama: OllamaConfig{
				ServerURL: v.GetString("llm.ollama.server_url"),
				Model:     v.GetString("llm.ollama.model"),
			},
		},
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		config.File = absPath
	}

	// Override with the conventional environment variables if set
	if root := os.Getenv("CONTENT_ROOT"); root != "" {
		config.Content.Root = root
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
		config.LLM.OpenAI.APIKey = openAIKey
	}
	if openAIModel := os.Getenv("OPENAI_MODEL"); openAIModel != "" {
		config.LLM.OpenAI.Model = openAIModel
	}

	if config.Loader.Workers < 1 {
		config.Loader.Workers = 1
	}
	if config.LLM.MaxRetries < 1 {
		config.LLM.MaxRetries = 1
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "jementraine")
	v.SetDefault("app.version", "dev")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("content.root", "content/exercises")
	v.SetDefault("content.watch", false)
	v.SetDefault("schema.path", "")
	v.SetDefault("loader.workers", 8)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache_ttls.catalog", "10m")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.delay_between", "1s")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.ollama.server_url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "qwen3:8b")
}
