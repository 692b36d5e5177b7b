// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/logging"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log logging.Config `yaml:"log"`
	ML  struct {
		ModelType   string `yaml:"model_type"`
		ModelPath   string `yaml:"model_path"`
		EncoderPath string `yaml:"encoder_path"`
		ONNXLibrary string `yaml:"onnx_library"`
		CacheSize   int    `yaml:"cache_size"`
		Watch       bool   `yaml:"watch"`
	} `yaml:"ml"`
	Chart struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"chart"`
}

func Default() *Config {
	var config Config
	config.Http.Port = 8501
	config.Http.Timeout = 30 * time.Second
	config.Http.MaxBodyBytes = 1 << 16
	config.Log = logging.DefaultConfig()
	config.ML.ModelType = ml.ModelTypeRandomForest
	config.ML.ModelPath = "iwakRf.json"
	config.ML.EncoderPath = "label_encoder.json"
	config.ML.CacheSize = predict.DefaultCacheSize
	config.Chart.Width = 800
	config.Chart.Height = 500
	return &config
}

// Load decodes path over the defaults. A missing file is not an error: the
// defaults are returned together with ok=false.
func Load(path string) (config *Config, ok bool, err error) {
	config = Default()
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	config.resolvePaths(filepath.Dir(path))
	return config, true, nil
}

// Locate returns the first existing candidate, so the binary finds the root
// config.yaml even when started from cmd/.
func Locate(candidates ...string) string {
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.Http.Port)
	}
	switch c.ML.ModelType {
	case ml.ModelTypeRandomForest, ml.ModelTypeDecisionTree, ml.ModelTypeONNX:
	default:
		return fmt.Errorf("unsupported model type %q", c.ML.ModelType)
	}
	if c.ML.ModelPath == "" || c.ML.EncoderPath == "" {
		return errors.New("model_path and encoder_path are required")
	}
	if c.ML.CacheSize <= 0 {
		return fmt.Errorf("invalid cache size %d", c.ML.CacheSize)
	}
	return nil
}

// resolvePaths makes relative artifact and log paths relative to the config
// file's directory.
func (c *Config) resolvePaths(dir string) {
	if dir == "" || dir == "." {
		return
	}
	for _, p := range []*string{&c.ML.ModelPath, &c.ML.EncoderPath, &c.Log.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func (c *Config) StoreConfig() ml.StoreConfig {
	return ml.StoreConfig{
		ModelType:   c.ML.ModelType,
		ModelPath:   c.ML.ModelPath,
		EncoderPath: c.ML.EncoderPath,
	}
}
