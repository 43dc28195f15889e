package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the pinmap service.
// It includes the environment, server port, source file location,
// authentication credentials, cache policy, and database configuration.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - Port: The port for the HTTP server.
// - CSVPath: The path to the source CSV file with raw points.
// - StaticDir: The directory with static assets served at the root.
// - Username: The basic-auth username (empty disables authentication).
// - Password: The basic-auth password.
// - ReadTimeout: The upper bound on a single source file read.
// - PreserveStale: Whether a failed load keeps serving the last good points.
// - Database: Configuration settings for the optional PostgreSQL sink.
type Config struct {
	Env           string         `yaml:"env"`            // Env is the current environment: local, dev, prod.
	Port          int            `yaml:"port"`           // Port is the HTTP server port.
	CSVPath       string         `yaml:"csv_path"`       // CSVPath is the location of the source file.
	StaticDir     string         `yaml:"static_dir"`     // StaticDir holds the static assets.
	Username      string         `yaml:"username"`       // Username for basic auth; empty disables the gate.
	Password      string         `yaml:"password"`       // Password for basic auth.
	ReadTimeout   time.Duration  `yaml:"read_timeout"`   // ReadTimeout bounds a single file read.
	PreserveStale bool           `yaml:"preserve_stale"` // PreserveStale keeps the last good points on load failure.
	Database      PostgresConfig `yaml:"postgres"`       // Database holds the optional postgres configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
// The snapshot sink is enabled only when Host is non-empty.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

// MustLoad loads the configuration from the environment and returns a Config struct.
// A .env file in the working directory is honored when present.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.SetEnvPrefix("PINMAP")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	vpr.SetDefault("env", "production")
	vpr.SetDefault("port", 8080)
	vpr.SetDefault("csv_path", "data/points.csv")
	vpr.SetDefault("static_dir", "static")
	vpr.SetDefault("read_timeout", "5s")
	vpr.SetDefault("preserve_stale", true)

	readTimeout, err := time.ParseDuration(vpr.GetString("read_timeout"))
	if err != nil {
		panic("failed to parse read timeout from configuration")
	}

	port := vpr.GetInt("port")
	if port == 0 {
		panic("failed to parse port for HTTP server from configuration")
	}

	csvPath := vpr.GetString("csv_path")
	if csvPath == "" {
		panic("csv path must not be empty")
	}

	return &Config{
		Env:           vpr.GetString("env"),
		Port:          port,
		CSVPath:       csvPath,
		StaticDir:     vpr.GetString("static_dir"),
		Username:      vpr.GetString("username"),
		Password:      vpr.GetString("password"),
		ReadTimeout:   readTimeout,
		PreserveStale: vpr.GetBool("preserve_stale"),
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}
