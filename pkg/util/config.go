package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ReadConfig. reads config.yaml (or the file given by path) into viper. env vars override file values.
func ReadConfig(path string) error {
	if path == "" {
		viper.SetConfigName("config")
		viper.AddConfigPath("./data/")
	} else {
		viper.SetConfigFile(path)
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

// FloorConfig. one floor entry under `floors:` in config.yaml.
// relative paths are resolved against the config file directory.
type FloorConfig struct {
	Building      string       `mapstructure:"building"`
	Floor         string       `mapstructure:"floor"`
	Plan          string       `mapstructure:"plan"`
	Topology      string       `mapstructure:"topology"`
	Overrides     string       `mapstructure:"overrides"`
	Footprint     string       `mapstructure:"footprint"`
	FootprintName string       `mapstructure:"footprint_name"`
	Bearing       float64      `mapstructure:"bearing"`
	Corners       [][2]float64 `mapstructure:"corners"` // optional [lat, lng] x4, takes precedence over footprint

	// resolve svg positions through transform attributes instead of each element's user space
	ApplyTransforms bool `mapstructure:"apply_transforms"`
}

// ReadFloorConfigs. decodes the `floors` key.
func ReadFloorConfigs() ([]FloorConfig, error) {
	var floors []FloorConfig
	if err := viper.UnmarshalKey("floors", &floors); err != nil {
		return nil, fmt.Errorf("decode floors config: %w", err)
	}

	baseDir := ""
	if used := viper.ConfigFileUsed(); used != "" {
		baseDir = filepath.Dir(used)
	}
	for i := range floors {
		floors[i].Plan = resolvePath(baseDir, floors[i].Plan)
		floors[i].Topology = resolvePath(baseDir, floors[i].Topology)
		floors[i].Overrides = resolvePath(baseDir, floors[i].Overrides)
		floors[i].Footprint = resolvePath(baseDir, floors[i].Footprint)
	}
	return floors, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
