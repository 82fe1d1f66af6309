package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Crime    CrimeConfig    `yaml:"crime" mapstructure:"crime"`
	Flood    FloodConfig    `yaml:"flood" mapstructure:"flood"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig configures the geocoding waterfall.
type GeocodeConfig struct {
	GoogleKey string  `yaml:"google_key" mapstructure:"google_key"`
	RateRPS   float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// PlacesConfig configures the nearby-search and place-detail provider.
type PlacesConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RateRPS         float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
	PacingMillis    int     `yaml:"pacing_millis" mapstructure:"pacing_millis"`
	DetailMaxPlaces int     `yaml:"detail_max_places" mapstructure:"detail_max_places"`
}

// CrimeConfig configures the FBI Crime Data Explorer client.
type CrimeConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FloodConfig configures the FEMA NFHL client.
type FloodConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Simulate bool   `yaml:"simulate" mapstructure:"simulate"`
}

// AnalysisConfig configures the assessment engine.
type AnalysisConfig struct {
	RadiusMeters    int `yaml:"radius_meters" mapstructure:"radius_meters"`
	MinRadiusMeters int `yaml:"min_radius_meters" mapstructure:"min_radius_meters"`
	MaxRadiusMeters int `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
}

// ServerConfig configures the analyze HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AREASCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("geocode.rate_rps", 5)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("places.rate_rps", 10)
	v.SetDefault("places.pacing_millis", 200)
	v.SetDefault("places.detail_max_places", 10)
	v.SetDefault("crime.base_url", "https://api.usa.gov/crime/fbi/cde")
	v.SetDefault("flood.base_url", "https://hazards.fema.gov/arcgis/rest/services/public/NFHL")
	v.SetDefault("flood.simulate", false)
	v.SetDefault("analysis.radius_meters", 1500)
	v.SetDefault("analysis.min_radius_meters", 1000)
	v.SetDefault("analysis.max_radius_meters", 5000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration supports the requested command.
func (c *Config) Validate(command string) error {
	switch command {
	case "analyze", "serve":
		if c.Places.Key == "" {
			return eris.New("config: places.key is required (set AREASCORE_PLACES_KEY)")
		}
		if c.Analysis.RadiusMeters < c.Analysis.MinRadiusMeters ||
			c.Analysis.RadiusMeters > c.Analysis.MaxRadiusMeters {
			return eris.Errorf("config: analysis.radius_meters must be between %d and %d",
				c.Analysis.MinRadiusMeters, c.Analysis.MaxRadiusMeters)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
