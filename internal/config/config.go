package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "truck2jbeam.cfg.json"

// ConversionSettings tune parsing, mass distribution and output.
type ConversionSettings struct {
	IndentSize            int     `json:"indentSize" yaml:"indent_size" mapstructure:"indentSize"`
	UseTabs               bool    `json:"useTabs" yaml:"use_tabs" mapstructure:"useTabs"`
	PrettyPrint           bool    `json:"prettyPrint" yaml:"pretty_print" mapstructure:"prettyPrint"`
	MinimumMass           float64 `json:"minimumMass" yaml:"minimum_mass" mapstructure:"minimumMass"`
	MassCalculationMethod string  `json:"massCalculationMethod" yaml:"mass_calculation_method" mapstructure:"massCalculationMethod"`

	DefaultBeamSpring   float64 `json:"defaultBeamSpring" yaml:"default_beam_spring" mapstructure:"defaultBeamSpring"`
	DefaultBeamDamp     float64 `json:"defaultBeamDamp" yaml:"default_beam_damp" mapstructure:"defaultBeamDamp"`
	DefaultBeamDeform   float64 `json:"defaultBeamDeform" yaml:"default_beam_deform" mapstructure:"defaultBeamDeform"`
	DefaultBeamStrength float64 `json:"defaultBeamStrength" yaml:"default_beam_strength" mapstructure:"defaultBeamStrength"`

	DefaultFriction   float64 `json:"defaultFriction" yaml:"default_friction" mapstructure:"defaultFriction"`
	DefaultLoadWeight float64 `json:"defaultLoadWeight" yaml:"default_load_weight" mapstructure:"defaultLoadWeight"`

	SlotType          string `json:"slotType" yaml:"slot_type" mapstructure:"slotType"`
	DefaultAuthor     string `json:"defaultAuthor" yaml:"default_author" mapstructure:"defaultAuthor"`
	IncludeStatistics bool   `json:"includeStatistics" yaml:"include_statistics" mapstructure:"includeStatistics"`

	StrictValidation         bool `json:"strictValidation" yaml:"strict_validation" mapstructure:"strictValidation"`
	WarnOnMissingNodes       bool `json:"warnOnMissingNodes" yaml:"warn_on_missing_nodes" mapstructure:"warnOnMissingNodes"`
	WarnOnDuplicatePositions bool `json:"warnOnDuplicatePositions" yaml:"warn_on_duplicate_positions" mapstructure:"warnOnDuplicatePositions"`

	// MaterialMappings renames triangle materials on output.
	MaterialMappings map[string]string `json:"materialMappings" yaml:"material_mappings" mapstructure:"materialMappings"`
}

// DefaultMaterialMappings map truck surface materials to node material names.
func DefaultMaterialMappings() map[string]string {
	return map[string]string{
		"default": "NM_METAL",
		"rubber":  "NM_RUBBER",
		"plastic": "NM_PLASTIC",
		"glass":   "NM_GLASS",
	}
}

// DefaultSettings returns the settings used without a config file.
func DefaultSettings() ConversionSettings {
	return ConversionSettings{
		IndentSize:               4,
		UseTabs:                  false,
		PrettyPrint:              true,
		MinimumMass:              50,
		MassCalculationMethod:    "beam_length",
		DefaultBeamSpring:        9000000,
		DefaultBeamDamp:          12000,
		DefaultBeamDeform:        400000,
		DefaultBeamStrength:      1000000,
		DefaultFriction:          1.0,
		DefaultLoadWeight:        0,
		SlotType:                 "main",
		DefaultAuthor:            "truck2jbeam converter",
		IncludeStatistics:        true,
		StrictValidation:         false,
		WarnOnMissingNodes:       true,
		WarnOnDuplicatePositions: true,
		MaterialMappings:         DefaultMaterialMappings(),
	}
}

// StorageConfig selects the conversion history backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// SQLiteConfig holds sqlite backend settings. An empty Path keeps the
// database in memory and dumps it to DumpPath on close.
type SQLiteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	Endpoint       string
	Insecure       bool
}

// PreviewConfig sets the size of rendered previews.
type PreviewConfig struct {
	Width   int
	Height  int
	Padding int
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "")

	d := DefaultSettings()
	viper.SetDefault("conversion.indentSize", d.IndentSize)
	viper.SetDefault("conversion.useTabs", d.UseTabs)
	viper.SetDefault("conversion.prettyPrint", d.PrettyPrint)
	viper.SetDefault("conversion.minimumMass", d.MinimumMass)
	viper.SetDefault("conversion.massCalculationMethod", d.MassCalculationMethod)
	viper.SetDefault("conversion.defaultBeamSpring", d.DefaultBeamSpring)
	viper.SetDefault("conversion.defaultBeamDamp", d.DefaultBeamDamp)
	viper.SetDefault("conversion.defaultBeamDeform", d.DefaultBeamDeform)
	viper.SetDefault("conversion.defaultBeamStrength", d.DefaultBeamStrength)
	viper.SetDefault("conversion.defaultFriction", d.DefaultFriction)
	viper.SetDefault("conversion.defaultLoadWeight", d.DefaultLoadWeight)
	viper.SetDefault("conversion.slotType", d.SlotType)
	viper.SetDefault("conversion.defaultAuthor", d.DefaultAuthor)
	viper.SetDefault("conversion.includeStatistics", d.IncludeStatistics)
	viper.SetDefault("conversion.strictValidation", d.StrictValidation)
	viper.SetDefault("conversion.warnOnMissingNodes", d.WarnOnMissingNodes)
	viper.SetDefault("conversion.warnOnDuplicatePositions", d.WarnOnDuplicatePositions)
	viper.SetDefault("conversion.materialMappings", d.MaterialMappings)

	viper.SetDefault("templatesFile", "")

	viper.SetDefault("storage.type", "none")
	viper.SetDefault("storage.memory.outputDir", "./history")
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./truck2jbeam_history.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "truck2jbeam")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "truck2jbeam")
	viper.SetDefault("influx.bucket", "conversions")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "truck2jbeam")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "10s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("preview.width", 1024)
	viper.SetDefault("preview.height", 768)
	viper.SetDefault("preview.padding", 32)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file
// leaves the defaults in place and is reported as ErrNotFound.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix("TRUCK2JBEAM")
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadFile reads one explicit config file.
func LoadFile(path string) error {
	setDefaults()

	viper.SetEnvPrefix("TRUCK2JBEAM")
	viper.AutomaticEnv()

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %v", path, err)
	}
	return nil
}

// ErrNotFound is returned by Load when the directory has no config file.
var ErrNotFound = errors.New("config file not found")

// GetConversionSettings returns the conversion section merged over the
// defaults.
func GetConversionSettings() ConversionSettings {
	s := DefaultSettings()
	if err := viper.UnmarshalKey("conversion", &s); err != nil {
		return DefaultSettings()
	}
	if len(s.MaterialMappings) == 0 {
		s.MaterialMappings = DefaultMaterialMappings()
	}
	return s
}

// GetStorageConfig returns the history storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir: viper.GetString("storage.memory.outputDir"),
		},
		SQLite: SQLiteConfig{
			Path:     viper.GetString("storage.sqlite.path"),
			DumpPath: viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetPreviewConfig returns the preview image settings.
func GetPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:   viper.GetInt("preview.width"),
		Height:  viper.GetInt("preview.height"),
		Padding: viper.GetInt("preview.padding"),
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
