package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sevkagr/foodlog/internal/points"
	"gopkg.in/yaml.v2"
)

var (
	RunAddress    string
	DatabaseURI   string
	LogLevel      string
	PolicyFile    string
	SweepInterval time.Duration
)

func ParseFlags() {
	// Local overrides live in .env; missing file is fine.
	_ = godotenv.Load()

	flag.StringVar(&RunAddress, "a", ":8080", "address to run server")
	flag.StringVar(&DatabaseURI, "d", "", "database uri")
	flag.StringVar(&LogLevel, "l", "info", "log level")
	flag.StringVar(&PolicyFile, "p", "", "scoring policy yaml file")
	flag.DurationVar(&SweepInterval, "i", time.Hour, "weekly award sweep interval")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		RunAddress = envRunAddr
	}
	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		DatabaseURI = databaseURI
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		LogLevel = logLevel
	}
	if policyFile := os.Getenv("POLICY_FILE"); policyFile != "" {
		PolicyFile = policyFile
	}
	if sweepInterval := os.Getenv("SWEEP_INTERVAL"); sweepInterval != "" {
		if parsed, err := time.ParseDuration(sweepInterval); err == nil {
			SweepInterval = parsed
		}
	}
}

// LoadPolicy returns the default scoring policy, overridden by the YAML policy
// file when one is configured.
func LoadPolicy() (points.Policy, error) {
	policy := points.DefaultPolicy()

	if PolicyFile == "" {
		return policy, nil
	}

	data, err := os.ReadFile(PolicyFile)
	if err != nil {
		return policy, err
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, err
	}

	return policy, nil
}
