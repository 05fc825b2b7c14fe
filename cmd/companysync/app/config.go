package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files. Cobra flags overwrite these
// fields after parsing.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Store and inputs
	StorePath    string
	TaxonomyPath string
	PolicyPath   string

	// Run artifacts
	AuditPath   string
	NoMatchPath string
	ResumePath  string

	// Run tuning
	DryRun          bool
	Workers         int
	PageSize        int
	RecordLimit     int
	StopAfterMerges int
	Sleep           time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of
// precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.companysync.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".companysync")
		}
	}

	// a missing config file is fine, flags and env cover everything
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		StorePath:    viper.GetString("store_path"),
		TaxonomyPath: viper.GetString("taxonomy_path"),
		PolicyPath:   viper.GetString("policy_path"),

		AuditPath:   viper.GetString("audit_report"),
		NoMatchPath: viper.GetString("no_match_report"),
		ResumePath:  viper.GetString("resume_file"),

		DryRun:          viper.GetBool("dry_run"),
		Workers:         viper.GetInt("workers"),
		PageSize:        viper.GetInt("page_size"),
		RecordLimit:     viper.GetInt("record_limit"),
		StopAfterMerges: viper.GetInt("stop_after_merges"),
		Sleep:           viper.GetDuration("sleep"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
