package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DetectionConfig holds the recognized options of a detection run.
// Zero values fall back to the defaults applied by Normalize.
type DetectionConfig struct {
	MinArea              float64 `yaml:"minArea" json:"minArea"`
	MaxArea              float64 `yaml:"maxArea" json:"maxArea"` // 0 = unbounded
	MinVertices          int     `yaml:"minVertices" json:"minVertices"`
	MaxVertices          int     `yaml:"maxVertices" json:"maxVertices"`
	MaxAspectRatio       float64 `yaml:"maxAspectRatio" json:"maxAspectRatio"`
	Tolerance            float64 `yaml:"tolerance" json:"tolerance"`
	QualityThreshold     float64 `yaml:"qualityThreshold" json:"qualityThreshold"`
	ContainmentThreshold float64 `yaml:"containmentThreshold" json:"containmentThreshold"`
	SimplificationEpsilon float64 `yaml:"simplificationEpsilon" json:"simplificationEpsilon"`
}

// DefaultDetectionConfig returns the engine defaults
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		MinArea:               1000,
		MaxArea:               0,
		MinVertices:           3,
		MaxVertices:           12,
		MaxAspectRatio:        10,
		Tolerance:             DefaultMergeTolerance,
		QualityThreshold:      30,
		ContainmentThreshold:  0.90,
		SimplificationEpsilon: 2,
	}
}

// Normalize fills unset fields with defaults and clamps nonsensical
// values.
func (c DetectionConfig) Normalize() DetectionConfig {
	def := DefaultDetectionConfig()
	if c.MinArea <= 0 {
		c.MinArea = def.MinArea
	}
	if c.MinVertices < 3 {
		c.MinVertices = def.MinVertices
	}
	if c.MaxVertices < c.MinVertices {
		c.MaxVertices = def.MaxVertices
	}
	if c.MaxAspectRatio <= 1 {
		c.MaxAspectRatio = def.MaxAspectRatio
	}
	if c.Tolerance <= 0 {
		c.Tolerance = def.Tolerance
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = def.QualityThreshold
	}
	if c.ContainmentThreshold <= 0 || c.ContainmentThreshold > 1 {
		c.ContainmentThreshold = def.ContainmentThreshold
	}
	if c.SimplificationEpsilon <= 0 {
		c.SimplificationEpsilon = def.SimplificationEpsilon
	}
	return c
}

// MQTTConfig configures the optional result publisher
type MQTTConfig struct {
	Broker   string `yaml:"broker" json:"broker"`
	ClientID string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Topic    string `yaml:"topic,omitempty" json:"topic,omitempty"`
}

// Config is the service-level configuration
type Config struct {
	DataDir   string          `yaml:"dataDir" json:"dataDir"`
	HTTPPort  int             `yaml:"httpPort" json:"httpPort"`
	CacheFile string          `yaml:"cacheFile,omitempty" json:"cacheFile,omitempty"`
	Detection DetectionConfig `yaml:"detection" json:"detection"`
	MQTT      MQTTConfig      `yaml:"mqtt" json:"mqtt"`
}

// LoadConfig loads the service configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate what cannot be defaulted away.
	if config.Detection.MaxArea > 0 && config.Detection.MaxArea < config.Detection.MinArea {
		return nil, fmt.Errorf("detection.maxArea (%v) is below detection.minArea (%v)",
			config.Detection.MaxArea, config.Detection.MinArea)
	}
	if config.HTTPPort < 0 || config.HTTPPort > 65535 {
		return nil, fmt.Errorf("httpPort %d out of range", config.HTTPPort)
	}

	config.Detection = config.Detection.Normalize()
	if config.HTTPPort == 0 {
		config.HTTPPort = 8080
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
