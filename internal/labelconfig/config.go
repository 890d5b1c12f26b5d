package labelconfig

import (
	"time"

	"github.com/wonny/fundlens/internal/statistics"
)

// Config is the display-label and taxonomy override file
type Config struct {
	Meta     Meta                `yaml:"meta" json:"meta"`
	Labels   statistics.Labels   `yaml:"labels" json:"labels"`
	Taxonomy statistics.Taxonomy `yaml:"taxonomy" json:"taxonomy"`
}

// Meta 메타 정보
type Meta struct {
	ID      string `yaml:"id" json:"id"`
	Version string `yaml:"version" json:"version"`
	Locale  string `yaml:"locale" json:"locale"`
}

// Snapshot records which label file produced an output
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigID   string    `json:"config_id"`
	Locale     string    `json:"locale"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Engine builds a statistics engine from the overrides.
// Labels are merged over the defaults; an empty taxonomy keeps the default one.
func (c *Config) Engine() *statistics.Engine {
	if c == nil {
		return statistics.NewEngine(statistics.Labels{}, statistics.Taxonomy{})
	}
	return statistics.NewEngine(c.Labels, c.Taxonomy)
}
