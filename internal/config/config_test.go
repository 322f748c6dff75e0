package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"conversion": { "minimumMass": 12.5, "defaultAuthor": "someone" },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))

	s := GetConversionSettings()
	assert.Equal(t, 12.5, s.MinimumMass)
	assert.Equal(t, "someone", s.DefaultAuthor)
	assert.Equal(t, 9000000.0, s.DefaultBeamSpring)
	assert.Equal(t, "NM_METAL", s.MaterialMappings["default"])
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "truck2jbeam", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "none", viper.GetString("storage.type"))
	assert.Equal(t, "./history", viper.GetString("storage.memory.outputDir"))

	assert.Equal(t, DefaultSettings(), GetConversionSettings())

	assert.Equal(t, OTelConfig{
		Enabled:        false,
		ServiceName:    "truck2jbeam",
		BatchTimeout:   5 * time.Second,
		MetricInterval: 10 * time.Second,
		Insecure:       true,
	}, GetOTelConfig())

	assert.Equal(t, InfluxConfig{
		Protocol: "http",
		Host:     "localhost",
		Port:     "8086",
		Org:      "truck2jbeam",
		Bucket:   "conversions",
	}, GetInfluxConfig())

	assert.Equal(t, PreviewConfig{Width: 1024, Height: 768, Padding: 32}, GetPreviewConfig())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// defaults stay usable
	assert.Equal(t, 50.0, GetConversionSettings().MinimumMass)
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{nope`), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoadFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage": {"type": "sqlite"}}`), 0644))

	require.NoError(t, LoadFile(path))
	assert.Equal(t, "sqlite", GetStorageConfig().Type)
	assert.Equal(t, "./truck2jbeam_history.db", GetStorageConfig().SQLite.DumpPath)
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("intKey", 42)
	viper.Set("boolKey", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("intKey"))
	assert.True(t, GetBool("boolKey"))
}

func TestBuiltinTemplates(t *testing.T) {
	tests := []struct {
		name    string
		minMass float64
		spring  float64
		dry     float64
		load    float64
	}{
		{"car", 25, 9000000, 1500, 500},
		{"truck", 100, 9000000, 8000, 20000},
		{"airplane", 10, 15000000, 2000, 1000},
		{"trailer", 75, 9000000, 5000, 25000},
	}

	templates := BuiltinTemplates()
	require.Len(t, templates, len(tests))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, ok := templates[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.name, tpl.Name)
			assert.Equal(t, tt.minMass, tpl.Settings.MinimumMass)
			assert.Equal(t, tt.spring, tpl.Settings.DefaultBeamSpring)
			assert.Equal(t, tt.dry, tpl.TypicalDryWeight)
			assert.Equal(t, tt.load, tpl.TypicalLoadWeight)
			assert.True(t, IsBuiltin(tt.name))
		})
	}
}

func TestTemplate_Apply(t *testing.T) {
	base := DefaultSettings()
	base.DefaultAuthor = "me"

	out := BuiltinTemplates()["airplane"].Apply(base)
	assert.Equal(t, 10.0, out.MinimumMass)
	assert.Equal(t, 15000000.0, out.DefaultBeamSpring)
	assert.Equal(t, "me", out.DefaultAuthor)

	// base is not modified
	assert.Equal(t, 50.0, base.MinimumMass)
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	doc := `templates:
  monster:
    description: Monster truck
    settings:
      minimum_mass: 200
      default_beam_damp: 20000
      material_mappings:
        rubber: NM_TIRE
    typical_dry_weight: 4000
  car:
    description: should not replace the builtin
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)

	assert.Equal(t, "Standard passenger car", templates["car"].Description)

	m, ok := templates["monster"]
	require.True(t, ok)
	assert.Equal(t, "monster", m.Name)
	assert.Equal(t, "Monster truck", m.Description)
	assert.Equal(t, 200.0, m.Settings.MinimumMass)
	assert.Equal(t, 20000.0, m.Settings.DefaultBeamDamp)
	assert.Equal(t, 9000000.0, m.Settings.DefaultBeamSpring)
	assert.Equal(t, 4000.0, m.TypicalDryWeight)

	out := m.Apply(DefaultSettings())
	assert.Equal(t, 200.0, out.MinimumMass)
	assert.Equal(t, "NM_TIRE", out.MaterialMappings["rubber"])
	assert.Equal(t, "NM_METAL", out.MaterialMappings["default"])

	assert.Equal(t, []string{"airplane", "car", "monster", "trailer", "truck"}, TemplateNames(templates))
}

func TestLoadTemplates_Errors(t *testing.T) {
	_, err := LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: [1, 2"), 0644))
	_, err = LoadTemplates(path)
	assert.Error(t, err)
}

func TestSaveTemplates_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")

	templates := BuiltinTemplates()
	s := DefaultSettings()
	s.MinimumMass = 33
	templates["kart"] = Template{Name: "kart", Description: "Go kart", Settings: s}

	require.NoError(t, SaveTemplates(path, templates))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "airplane")

	loaded, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, 33.0, loaded["kart"].Settings.MinimumMass)
	assert.Equal(t, "Go kart", loaded["kart"].Description)
}
