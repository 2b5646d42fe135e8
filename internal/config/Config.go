// This file contains the service Config, read from a .env file and the process environment.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultEnvPath is where the service looks for its .env file.
const DefaultEnvPath = "secrets/.env"

// DefaultWebserverPort is used when WEBSERVER_PORT is unset.
const DefaultWebserverPort = 5000

var (
	// ErrMissingSecret is returned when JWT_SECRET_KEY is unset.
	ErrMissingSecret = errors.New("JWT_SECRET_KEY is not set")
	// ErrInvalidPort is returned when WEBSERVER_PORT is not a valid port number.
	ErrInvalidPort = errors.New("WEBSERVER_PORT is not a valid port")
)

// Config holds the connection settings of the ingest service.
type Config struct {
	RabbitMQIP       string
	RabbitMQUser     string
	RabbitMQPassword string

	MongoIP       string
	MongoUser     string
	MongoPassword string

	WebserverIP   string
	WebserverPort int
	JWTSecret     string

	// RulesPath points to the YAML file with include rules and grouping options. Empty means defaults.
	RulesPath string
	Debug     bool
}

// Load reads envPath into the environment (variables already set win) and builds a Config from it.
// An empty envPath skips the file.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", envPath, err)
		}
	}

	cfg := &Config{
		RabbitMQIP:       os.Getenv("RABBITMQ_IP"),
		RabbitMQUser:     os.Getenv("RABBITMQ_DEFAULT_USER"),
		RabbitMQPassword: os.Getenv("RABBITMQ_DEFAULT_PASS"),
		MongoIP:          os.Getenv("MONGO_IP"),
		MongoUser:        os.Getenv("MONGO_INITDB_ROOT_USERNAME"),
		MongoPassword:    os.Getenv("MONGO_INITDB_ROOT_PASSWORD"),
		WebserverIP:      os.Getenv("WEBSERVER_IP"),
		WebserverPort:    DefaultWebserverPort,
		JWTSecret:        os.Getenv("JWT_SECRET_KEY"),
		RulesPath:        os.Getenv("INGEST_RULES_PATH"),
	}

	if port := os.Getenv("WEBSERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPort, port)
		}
		cfg.WebserverPort = p
	}

	if debug := os.Getenv("LOG_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, fmt.Errorf("LOG_DEBUG: %w", err)
		}
		cfg.Debug = d
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return cfg, nil
}

// MongoURI returns the connection string of the MongoDB server.
func (c *Config) MongoURI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:27017", c.MongoUser, c.MongoPassword, c.MongoIP)
}

// RabbitMQURL returns the AMQP URL of the RabbitMQ broker.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:5672/", c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQIP)
}
