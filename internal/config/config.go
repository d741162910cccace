package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	StoreURL       string `envconfig:"STORE_URL" default:"sqlite://./data/layouts.db"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	// DevTokens mounts /auth/token, which signs tokens without a password.
	DevTokens bool `envconfig:"DEV_TOKENS" default:"false"`

	// Editor tunables
	GridSize        float64       `envconfig:"GRID_SIZE" default:"10"`
	SnapThreshold   float64       `envconfig:"SNAP_THRESHOLD" default:"5"`
	MinSize         float64       `envconfig:"MIN_SIZE" default:"20"`
	RotationStep    float64       `envconfig:"ROTATION_STEP" default:"15"`
	HistoryCapacity int           `envconfig:"HISTORY_CAPACITY" default:"50"`
	StyleDebounce   time.Duration `envconfig:"STYLE_DEBOUNCE" default:"500ms"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into a list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the origins without scheme, the form websocket origin
// patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, o)
	}
	return out
}
