package cli

import (
	"time"

	"codeberg.org/snonux/rode/internal/lang"
)

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile     string
	LogLevel    string
	LogJSON     bool
	From        string
	To          string
	Backend     string
	Helper      []string
	Timeout     time.Duration
	HistoryPath string

	// serve flags
	Host      string
	Port      int
	RateLimit float64
	RateBurst int

	// translate flags
	BatchFile   string
	Concurrency int
	JSONOutput  bool

	// history flags
	Limit int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:    "info",
		From:        lang.DefaultSource,
		To:          lang.DefaultTarget,
		Backend:     BackendReverso,
		Helper:      []string{"node", "reverso_helper.js"},
		Timeout:     30 * time.Second,
		Host:        "127.0.0.1",
		Port:        8000,
		RateBurst:   10,
		Concurrency: 2,
		Limit:       20,
	}
}
