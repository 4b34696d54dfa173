// Configuration is loaded from a yaml file placed on the server. Secrets may be supplied
// through the environment instead, optionally read from a local .env file.

package config

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseType string

const (
	Mysql    DatabaseType = "mysql"
	Inmemory DatabaseType = "inmemory"
)

const DefaultTokenLifetimeMinutes = 60

type (
	Application struct {
		Service  ServiceConfig  `yaml:"service"`
		Gateway  GatewayConfig  `yaml:"gateway"`
		Server   ServerConfig   `yaml:"server"`
		Database DatabaseConfig `yaml:"database"`
		Security SecurityConfig `yaml:"security"`
		Logging  LoggingConfig  `yaml:"logging"`
	}

	ServiceConfig struct {
		Name string `yaml:"name"`
	}

	// GatewayConfig configures the XGate payment gateway client.
	GatewayConfig struct {
		BaseUrl              string `yaml:"base_url"`
		Email                string `yaml:"email"`
		Password             string `yaml:"password"`
		TokenLifetimeMinutes int    `yaml:"token_lifetime_minutes"`
		TimeoutSeconds       int    `yaml:"timeout_seconds"`
	}

	ServerConfig struct {
		BaseAddress  string `yaml:"address"`
		Port         int    `yaml:"port"`
		ReadTimeout  int    `yaml:"read_timeout_seconds"`
		WriteTimeout int    `yaml:"write_timeout_seconds"`
		IdleTimeout  int    `yaml:"idle_timeout_seconds"`
	}

	DatabaseConfig struct {
		Use        DatabaseType `yaml:"use"`
		Username   string       `yaml:"username"`
		Password   string       `yaml:"password"`
		Database   string       `yaml:"database"`
		Parameters []string     `yaml:"parameters"`
	}

	SecurityConfig struct {
		Fixed FixedTokenConfig    `yaml:"fixed_token"`
		Oidc  OpenIdConnectConfig `yaml:"oidc"`
		Cors  CorsConfig          `yaml:"cors"`
	}

	FixedTokenConfig struct {
		Api string `yaml:"api"`
	}

	OpenIdConnectConfig struct {
		TokenCookieName    string   `yaml:"token_cookie_name"`
		TokenPublicKeysPEM []string `yaml:"token_public_keys_PEM"`
		AdminRole          string   `yaml:"admin_role"`
	}

	CorsConfig struct {
		DisableCors bool   `yaml:"disable"`
		AllowOrigin string `yaml:"allow_origin"`
	}

	LoggingConfig struct {
		Severity string `yaml:"severity"`
		Style    string `yaml:"style"`
	}
)

// environment variables that take precedence over the yaml file
const (
	EnvGatewayEmail    = "XGATE_EMAIL"
	EnvGatewayPassword = "XGATE_PASSWORD"
	EnvDatabasePass    = "DB_PASSWORD"
	EnvApiToken        = "API_TOKEN"
)

func UnmarshalFromYamlConfiguration(r io.Reader) (*Application, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	conf := &Application{}
	if err := d.Decode(conf); err != nil {
		return nil, err
	}

	setDefaults(conf)

	return conf, nil
}

func setDefaults(conf *Application) {
	if conf.Gateway.TokenLifetimeMinutes == 0 {
		conf.Gateway.TokenLifetimeMinutes = DefaultTokenLifetimeMinutes
	}
	if conf.Logging.Severity == "" {
		conf.Logging.Severity = "INFO"
	}
	if conf.Logging.Style == "" {
		conf.Logging.Style = "plain"
	}
}

// LoadDotEnv reads KEY=value pairs from the given file into the environment.
// A missing file is not an error, variables already set are not overwritten.
func LoadDotEnv(filename string) error {
	err := godotenv.Load(filename)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func ApplyEnvironmentOverrides(conf *Application) {
	overrideFromEnv(&conf.Gateway.Email, EnvGatewayEmail)
	overrideFromEnv(&conf.Gateway.Password, EnvGatewayPassword)
	overrideFromEnv(&conf.Database.Password, EnvDatabasePass)
	overrideFromEnv(&conf.Security.Fixed.Api, EnvApiToken)
}

func overrideFromEnv(target *string, name string) {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		*target = value
	}
}

// LoadConfiguration reads the yaml file, applies environment overrides and validates the result.
func LoadConfiguration(filename string, logFunc func(format string, v ...interface{})) (*Application, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	conf, err := UnmarshalFromYamlConfiguration(file)
	if err != nil {
		return nil, err
	}

	ApplyEnvironmentOverrides(conf)

	if err := Validate(conf, logFunc); err != nil {
		return nil, err
	}

	return conf, nil
}
