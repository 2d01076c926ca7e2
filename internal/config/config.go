package config

import (
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database"
)

// Client configures the rally client.
type Client struct {
	Debug            bool          `envconfig:"RALLY_DEBUG" default:"false"`
	BackendURL       string        `envconfig:"RALLY_BACKEND_URL" default:"http://localhost:8080"`
	RequestTimeout   time.Duration `envconfig:"RALLY_REQUEST_TIMEOUT" default:"10s"`
	ProbeInterval    time.Duration `envconfig:"RALLY_PROBE_INTERVAL" default:"10s"`
	DeadlineInterval time.Duration `envconfig:"RALLY_DEADLINE_INTERVAL" default:"5s"`
	CacheSize        int           `envconfig:"RALLY_CACHE_SIZE" default:"256"`
	DB               database.Config
}

// DevServer configures the development backend.
type DevServer struct {
	Debug bool   `envconfig:"RALLY_DEBUG" default:"false"`
	Addr  string `envconfig:"RALLY_DEVSERVER_ADDR" default:":8080"`
	Seed  bool   `envconfig:"RALLY_SEED" default:"true"`
}
