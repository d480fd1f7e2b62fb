package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	defaultProvider       = ProviderGemini
	defaultAnalysisModel  = "gemini-2.5-flash"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultImageModel     = "gemini-3-pro-image-preview"
	defaultAspectRatio    = "16:9"
	defaultImageSize      = "1K"
	defaultOutputDir      = "./output"
	defaultExportFormat   = FormatPNG
	defaultJPEGQuality    = 85
	defaultServerAddr     = ":8080"
	defaultAllowedOrigin  = "http://localhost:3000"
	defaultEnvFile        = ".env"
	defaultGCSPrefix      = "storyboards"
	maxJPEGQuality        = 100
	geminiAPIKeyEnv       = "GEMINI_API_KEY"
	geminiAPIKeySecretEnv = "GEMINI_API_KEY_SECRET"
	groqAPIKeyEnv         = "GROQ_API_KEY"
	gcsBucketEnv          = "GCS_BUCKET"
)

type Config struct {
	GeminiAPIKey       string `yaml:"-"`
	GeminiAPIKeySecret string `yaml:"-"`
	GroqAPIKey         string `yaml:"-"`
	GCSBucket          string `yaml:"-"`

	Analysis    AnalysisConfig    `yaml:"analysis"`
	Render      RenderConfig      `yaml:"render"`
	Export      ExportConfig      `yaml:"export"`
	Server      ServerConfig      `yaml:"server"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

type AnalysisConfig struct {
	Provider  string `yaml:"provider"` // "gemini" or "groq"
	Model     string `yaml:"model"`
	GroqModel string `yaml:"groq_model"`
}

type RenderConfig struct {
	Model       string `yaml:"model"`
	AspectRatio string `yaml:"aspect_ratio"`
	ImageSize   string `yaml:"image_size"`
}

type ExportConfig struct {
	OutputDir   string    `yaml:"output_dir"`
	Format      string    `yaml:"format"` // "png" or "jpeg"
	JPEGQuality int       `yaml:"jpeg_quality"`
	GCS         GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type CredentialsConfig struct {
	EnvFile string `yaml:"env_file"`
}

// Load reads the yaml file at path (a missing file means defaults), then
// the secrets from the environment and the configured env file. Values set
// in the environment win over the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = DefaultConfigPath
	}
	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	loadSecrets(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSecrets(cfg *Config) {
	fileEnv, err := godotenv.Read(cfg.Credentials.EnvFile)
	if err != nil {
		slog.Debug("No env file found, relying on environment variables", "path", cfg.Credentials.EnvFile)
		fileEnv = map[string]string{}
	} else if err := godotenv.Load(cfg.Credentials.EnvFile); err != nil {
		slog.Debug("Could not export env file", "path", cfg.Credentials.EnvFile, "error", err)
	}

	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileEnv[key]
	}

	cfg.GeminiAPIKey = lookup(geminiAPIKeyEnv)
	cfg.GeminiAPIKeySecret = lookup(geminiAPIKeySecretEnv)
	cfg.GroqAPIKey = lookup(groqAPIKeyEnv)
	cfg.GCSBucket = lookup(gcsBucketEnv)
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyAnalysisDefaults(cfg)
	applyRenderDefaults(cfg)
	applyExportDefaults(cfg)
	applyServerDefaults(cfg)
	applyCredentialsDefaults(cfg)
}

func applyAnalysisDefaults(cfg *Config) {
	if cfg.Analysis.Provider == "" {
		cfg.Analysis.Provider = defaultProvider
	}
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = defaultAnalysisModel
	}
	if cfg.Analysis.GroqModel == "" {
		cfg.Analysis.GroqModel = defaultGroqModel
	}
}

func applyRenderDefaults(cfg *Config) {
	if cfg.Render.Model == "" {
		cfg.Render.Model = defaultImageModel
	}
	if cfg.Render.AspectRatio == "" {
		cfg.Render.AspectRatio = defaultAspectRatio
	}
	if cfg.Render.ImageSize == "" {
		cfg.Render.ImageSize = defaultImageSize
	}
}

func applyExportDefaults(cfg *Config) {
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = defaultOutputDir
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaultExportFormat
	}
	if cfg.Export.JPEGQuality <= 0 || cfg.Export.JPEGQuality > maxJPEGQuality {
		cfg.Export.JPEGQuality = defaultJPEGQuality
	}
	if cfg.Export.GCS.Prefix == "" {
		cfg.Export.GCS.Prefix = defaultGCSPrefix
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{defaultAllowedOrigin}
	}
}

func applyCredentialsDefaults(cfg *Config) {
	if cfg.Credentials.EnvFile == "" {
		cfg.Credentials.EnvFile = defaultEnvFile
	}
}

func (cfg *Config) validate() error {
	switch cfg.Analysis.Provider {
	case ProviderGemini, ProviderGroq:
	default:
		return fmt.Errorf("unknown analysis provider %q", cfg.Analysis.Provider)
	}

	switch cfg.Export.Format {
	case FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("unknown export format %q", cfg.Export.Format)
	}

	if cfg.Export.GCS.Enabled && cfg.GCSBucket == "" {
		return fmt.Errorf("export.gcs.enabled requires %s", gcsBucketEnv)
	}
	return nil
}
