package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env-default:"9091"`
	Redis      Redis   `yaml:"redis"`
	Sweeper    Sweeper `yaml:"sweeper"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Sweeper holds the abandonment thresholds. The stale cycle looks at the time
// since the last move; the hard cycle is an absolute cutoff from creation.
type Sweeper struct {
	StaleAfter    time.Duration `yaml:"stale-after" env-default:"30m"`
	StaleInterval time.Duration `yaml:"stale-interval" env-default:"10m"`
	HardAfter     time.Duration `yaml:"hard-after" env-default:"2h"`
	HardInterval  time.Duration `yaml:"hard-interval" env-default:"1h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
