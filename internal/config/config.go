// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "panopath.cfg.json"

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Address      string        `json:"address" mapstructure:"address"`
	Panorama     string        `json:"panorama" mapstructure:"panorama"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
	// FetchTimeout bounds downloading a panorama from an http(s) URL.
	FetchTimeout time.Duration `json:"fetchTimeout" mapstructure:"fetchTimeout"`
}

// CanvasConfig holds export raster and scene sizing
type CanvasConfig struct {
	Width       int     `json:"width" mapstructure:"width"`
	Height      int     `json:"height" mapstructure:"height"`
	StrokeWidth float64 `json:"strokeWidth" mapstructure:"strokeWidth"`
	Strategy    string  `json:"strategy" mapstructure:"strategy"`

	SphereRadius     float64 `json:"sphereRadius" mapstructure:"sphereRadius"`
	MinSegmentLength float64 `json:"minSegmentLength" mapstructure:"minSegmentLength"`
	CylinderRadius   float64 `json:"cylinderRadius" mapstructure:"cylinderRadius"`
	JointRadius      float64 `json:"jointRadius" mapstructure:"jointRadius"`
	EndpointRadius   float64 `json:"endpointRadius" mapstructure:"endpointRadius"`
	TubeRadius       float64 `json:"tubeRadius" mapstructure:"tubeRadius"`
	TubeSamples      int     `json:"tubeSamples" mapstructure:"tubeSamples"`
	HotspotRadius    float64 `json:"hotspotRadius" mapstructure:"hotspotRadius"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the annotation store
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
	DB            DBConfig      `json:"db" mapstructure:"db"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// ExportConfig holds CLI export output settings
type ExportConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB v2 settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// GraylogConfig holds GELF output settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// MonitorConfig holds session sampling settings
type MonitorConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.panorama", "./panorama.jpg")
	viper.SetDefault("server.writeTimeout", "2m")
	viper.SetDefault("server.fetchTimeout", "2m")

	viper.SetDefault("canvas.width", 4096)
	viper.SetDefault("canvas.height", 2048)
	viper.SetDefault("canvas.strokeWidth", 6)
	viper.SetDefault("canvas.strategy", "segmented")
	viper.SetDefault("canvas.sphereRadius", 500)
	viper.SetDefault("canvas.minSegmentLength", 5)
	viper.SetDefault("canvas.cylinderRadius", 1.5)
	viper.SetDefault("canvas.jointRadius", 2)
	viper.SetDefault("canvas.endpointRadius", 3)
	viper.SetDefault("canvas.tubeRadius", 1.5)
	viper.SetDefault("canvas.tubeSamples", 16)
	viper.SetDefault("canvas.hotspotRadius", 3)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./annotations")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./panopath.db")
	viper.SetDefault("storage.db.host", "localhost")
	viper.SetDefault("storage.db.port", "5432")
	viper.SetDefault("storage.db.username", "postgres")
	viper.SetDefault("storage.db.password", "postgres")
	viper.SetDefault("storage.db.database", "panopath")
	viper.SetDefault("storage.batchSize", 100)
	viper.SetDefault("storage.flushInterval", "1s")

	viper.SetDefault("export.outputDir", "./exports")
	viper.SetDefault("export.compressOutput", false)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "panopath")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "panopath")
	viper.SetDefault("influx.bucket", "annotations")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "30s")
}

// Load sets default values and reads the JSON config file from configDir.
// A missing file is not an error: found is false and defaults apply.
func Load(configDir string) (found bool, err error) {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix("PANOPATH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error reading config file: %w", err)
	}
	return true, nil
}

// GetServerConfig returns the HTTP server configuration.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:      viper.GetString("server.address"),
		Panorama:     viper.GetString("server.panorama"),
		WriteTimeout: viper.GetDuration("server.writeTimeout"),
		FetchTimeout: viper.GetDuration("server.fetchTimeout"),
	}
}

// GetCanvasConfig returns export raster and scene sizing.
func GetCanvasConfig() CanvasConfig {
	return CanvasConfig{
		Width:            viper.GetInt("canvas.width"),
		Height:           viper.GetInt("canvas.height"),
		StrokeWidth:      viper.GetFloat64("canvas.strokeWidth"),
		Strategy:         viper.GetString("canvas.strategy"),
		SphereRadius:     viper.GetFloat64("canvas.sphereRadius"),
		MinSegmentLength: viper.GetFloat64("canvas.minSegmentLength"),
		CylinderRadius:   viper.GetFloat64("canvas.cylinderRadius"),
		JointRadius:      viper.GetFloat64("canvas.jointRadius"),
		EndpointRadius:   viper.GetFloat64("canvas.endpointRadius"),
		TubeRadius:       viper.GetFloat64("canvas.tubeRadius"),
		TubeSamples:      viper.GetInt("canvas.tubeSamples"),
		HotspotRadius:    viper.GetFloat64("canvas.hotspotRadius"),
	}
}

// GetStorageConfig returns the storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("storage.db.host"),
			Port:     viper.GetString("storage.db.port"),
			Username: viper.GetString("storage.db.username"),
			Password: viper.GetString("storage.db.password"),
			Database: viper.GetString("storage.db.database"),
		},
		BatchSize:     viper.GetInt("storage.batchSize"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
	}
}

// GetExportConfig returns the CLI export configuration.
func GetExportConfig() ExportConfig {
	return ExportConfig{
		OutputDir:      viper.GetString("export.outputDir"),
		CompressOutput: viper.GetBool("export.compressOutput"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the Graylog configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns the session monitor configuration.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// Set overrides a config value, e.g. from a CLI flag.
func Set(key string, value any) {
	viper.Set(key, value)
}
