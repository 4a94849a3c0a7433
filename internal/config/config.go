package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

var ErrUnknownStorage = errors.New("unknown storage driver")

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Agent    Agent    `yaml:"agent"`
	Training Training `yaml:"training"`
	Storage  Storage  `yaml:"storage"`
	Plot     Plot     `yaml:"plot"`
}

type Agent struct {
	Name    string  `yaml:"name" env:"AGENT_NAME" env-default:"default"`
	Mark    string  `yaml:"mark" env:"AGENT_MARK" env-default:"O"`
	Alpha   float64 `yaml:"alpha" env:"AGENT_ALPHA" env-default:"0.5"`
	Gamma   float64 `yaml:"gamma" env:"AGENT_GAMMA" env-default:"0.9"`
	Epsilon float64 `yaml:"epsilon" env:"AGENT_EPSILON" env-default:"0.1"`
	// Seed for exploration; 0 picks one from the clock.
	Seed int64 `yaml:"seed" env:"AGENT_SEED" env-default:"0"`
}

type Training struct {
	ReportEvery   int     `yaml:"report-every" env-default:"1000"`
	EvaluateGames int     `yaml:"evaluate-games" env-default:"10"`
	WinReward     float64 `yaml:"win-reward" env-default:"1"`
	LossReward    float64 `yaml:"loss-reward" env-default:"-1"`
	DrawReward    float64 `yaml:"draw-reward" env-default:"0"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Path       string `yaml:"path" env:"STORAGE_PATH" env-default:"./trained_agent.json"`
	SQLitePath string `yaml:"sqlite-path" env:"STORAGE_SQLITE_PATH" env-default:"./agents.db"`
	Redis      Redis  `yaml:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Plot struct {
	Path   string  `yaml:"path" env:"PLOT_PATH" env-default:"./reward.png"`
	Width  float64 `yaml:"width" env-default:"8"`
	Height float64 `yaml:"height" env-default:"5"`
}

// Load reads the config file at path. A missing file is not an error: environment
// variables and defaults are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = cleanenv.ReadEnv(config)
	case err == nil:
		err = cleanenv.ReadConfig(path, config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Storage.Driver {
	case StorageFile, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Storage.Driver)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
