package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Template is a named set of conversion settings for one kind of vehicle.
type Template struct {
	Name                   string             `yaml:"-"`
	Description            string             `yaml:"description"`
	Settings               ConversionSettings `yaml:"settings"`
	TypicalDryWeight       float64            `yaml:"typical_dry_weight,omitempty"`
	TypicalLoadWeight      float64            `yaml:"typical_load_weight,omitempty"`
	RecommendedMinimumMass float64            `yaml:"recommended_minimum_mass,omitempty"`
}

// Apply returns base with the template's settings laid over it. Values
// the template leaves at their defaults do not override base.
func (t Template) Apply(base ConversionSettings) ConversionSettings {
	def := DefaultSettings()
	out := base
	s := t.Settings

	if s.MinimumMass != def.MinimumMass {
		out.MinimumMass = s.MinimumMass
	}
	if s.DefaultBeamSpring != def.DefaultBeamSpring {
		out.DefaultBeamSpring = s.DefaultBeamSpring
	}
	if s.DefaultBeamDamp != def.DefaultBeamDamp {
		out.DefaultBeamDamp = s.DefaultBeamDamp
	}
	if s.DefaultBeamDeform != def.DefaultBeamDeform {
		out.DefaultBeamDeform = s.DefaultBeamDeform
	}
	if s.DefaultBeamStrength != def.DefaultBeamStrength {
		out.DefaultBeamStrength = s.DefaultBeamStrength
	}
	if s.DefaultFriction != def.DefaultFriction {
		out.DefaultFriction = s.DefaultFriction
	}
	if s.DefaultLoadWeight != def.DefaultLoadWeight {
		out.DefaultLoadWeight = s.DefaultLoadWeight
	}
	if s.SlotType != def.SlotType {
		out.SlotType = s.SlotType
	}
	if s.DefaultAuthor != def.DefaultAuthor {
		out.DefaultAuthor = s.DefaultAuthor
	}
	if len(s.MaterialMappings) > 0 && !maps.Equal(s.MaterialMappings, def.MaterialMappings) {
		out.MaterialMappings = maps.Clone(out.MaterialMappings)
		if out.MaterialMappings == nil {
			out.MaterialMappings = make(map[string]string, len(s.MaterialMappings))
		}
		maps.Copy(out.MaterialMappings, s.MaterialMappings)
	}
	if t.RecommendedMinimumMass > 0 {
		out.MinimumMass = t.RecommendedMinimumMass
	}
	return out
}

func builtinTemplate(name, desc string, dry, load, minMass float64, tune func(*ConversionSettings)) Template {
	s := DefaultSettings()
	s.MinimumMass = minMass
	if tune != nil {
		tune(&s)
	}
	return Template{
		Name:                   name,
		Description:            desc,
		Settings:               s,
		TypicalDryWeight:       dry,
		TypicalLoadWeight:      load,
		RecommendedMinimumMass: minMass,
	}
}

// BuiltinTemplates returns the templates shipped with the converter.
func BuiltinTemplates() map[string]Template {
	return map[string]Template{
		"car":   builtinTemplate("car", "Standard passenger car", 1500, 500, 25, nil),
		"truck": builtinTemplate("truck", "Heavy truck/lorry", 8000, 20000, 100, nil),
		"airplane": builtinTemplate("airplane", "Aircraft", 2000, 1000, 10, func(s *ConversionSettings) {
			s.DefaultBeamSpring = 15000000
		}),
		"trailer": builtinTemplate("trailer", "Trailer/semi-trailer", 5000, 25000, 75, nil),
	}
}

// IsBuiltin reports whether name is one of the shipped templates.
func IsBuiltin(name string) bool {
	_, ok := BuiltinTemplates()[name]
	return ok
}

// LoadTemplates reads custom templates from a YAML file and merges them
// with the built-in ones. Built-in templates cannot be redefined. Settings
// missing from a custom template keep their defaults.
func LoadTemplates(path string) (map[string]Template, error) {
	out := BuiltinTemplates()
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading templates file: %w", err)
	}

	var doc struct {
		Templates map[string]yaml.Node `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing templates file %s: %w", path, err)
	}

	for name, node := range doc.Templates {
		if _, ok := out[name]; ok {
			continue
		}
		t := Template{
			Description: "Custom template",
			Settings:    DefaultSettings(),
		}
		if err := node.Decode(&t); err != nil {
			return nil, fmt.Errorf("error parsing template %q: %w", name, err)
		}
		t.Name = name
		out[name] = t
	}
	return out, nil
}

// SaveTemplates writes the custom (non built-in) templates to path.
func SaveTemplates(path string, templates map[string]Template) error {
	custom := make(map[string]Template)
	for name, t := range templates {
		if IsBuiltin(name) {
			continue
		}
		custom[name] = t
	}

	data, err := yaml.Marshal(struct {
		Templates map[string]Template `yaml:"templates"`
	}{custom})
	if err != nil {
		return fmt.Errorf("error encoding templates: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing templates file: %w", err)
	}
	return nil
}

// GetTemplates returns the built-in templates plus those from the
// configured templatesFile.
func GetTemplates() (map[string]Template, error) {
	return LoadTemplates(viper.GetString("templatesFile"))
}

// TemplateNames returns template names in sorted order.
func TemplateNames(templates map[string]Template) []string {
	return slices.Sorted(maps.Keys(templates))
}
