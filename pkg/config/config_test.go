package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	return tmp
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{geminiAPIKeyEnv, geminiAPIKeySecretEnv, groqAPIKeyEnv, gcsBucketEnv} {
		t.Setenv(key, "")
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	yaml := `
analysis:
  provider: groq
  groq_model: test-model
render:
  model: image-model
  aspect_ratio: "4:3"
export:
  format: jpeg
  jpeg_quality: 70
server:
  addr: ":9090"
  allowed_origins: ["https://studio.example.com"]
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Provider != ProviderGroq {
		t.Errorf("Analysis.Provider = %q, want groq", cfg.Analysis.Provider)
	}
	if cfg.Analysis.GroqModel != "test-model" {
		t.Errorf("Analysis.GroqModel = %q, want test-model", cfg.Analysis.GroqModel)
	}
	if cfg.Render.Model != "image-model" {
		t.Errorf("Render.Model = %q, want image-model", cfg.Render.Model)
	}
	if cfg.Render.AspectRatio != "4:3" {
		t.Errorf("Render.AspectRatio = %q, want 4:3", cfg.Render.AspectRatio)
	}
	if cfg.Render.ImageSize != defaultImageSize {
		t.Errorf("Render.ImageSize = %q, want default %q", cfg.Render.ImageSize, defaultImageSize)
	}
	if cfg.Export.Format != FormatJPEG || cfg.Export.JPEGQuality != 70 {
		t.Errorf("Export = %+v, want jpeg/70", cfg.Export)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"provider", cfg.Analysis.Provider, defaultProvider},
		{"analysisModel", cfg.Analysis.Model, defaultAnalysisModel},
		{"imageModel", cfg.Render.Model, defaultImageModel},
		{"aspectRatio", cfg.Render.AspectRatio, "16:9"},
		{"imageSize", cfg.Render.ImageSize, "1K"},
		{"outputDir", cfg.Export.OutputDir, defaultOutputDir},
		{"format", cfg.Export.Format, FormatPNG},
		{"serverAddr", cfg.Server.Addr, defaultServerAddr},
		{"envFile", cfg.Credentials.EnvFile, defaultEnvFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	t.Setenv(geminiAPIKeyEnv, "test-gemini")
	t.Setenv(groqAPIKeyEnv, "test-groq")
	t.Setenv(geminiAPIKeySecretEnv, "projects/p/secrets/gemini/versions/latest")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GeminiAPIKey != "test-gemini" {
		t.Errorf("GeminiAPIKey = %q, want test-gemini", cfg.GeminiAPIKey)
	}
	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.GeminiAPIKeySecret == "" {
		t.Error("GeminiAPIKeySecret not loaded")
	}
}

func TestLoadExplicitPath(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	path := filepath.Join(tmp, "custom.yaml")
	_ = os.WriteFile(path, []byte("render:\n  image_size: 2K\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.ImageSize != "2K" {
		t.Errorf("Render.ImageSize = %q, want 2K", cfg.Render.ImageSize)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformedYAML", yaml: "analysis: [unclosed"},
		{name: "unknownProvider", yaml: "analysis:\n  provider: openai\n"},
		{name: "unknownFormat", yaml: "export:\n  format: gif\n"},
		{name: "gcsWithoutBucket", yaml: "export:\n  gcs:\n    enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := chdirTemp(t)
			clearEnv(t)
			_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(tt.yaml), 0644)

			if _, err := Load(""); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoadCustomEnvFile(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	envFile := filepath.Join(tmp, "secrets", "storyboard.env")
	if err := os.MkdirAll(filepath.Dir(envFile), 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("credentials:\n  env_file: "+envFile+"\n"), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Credentials.EnvFile != envFile {
		t.Fatalf("Credentials.EnvFile = %q, want %q", cfg.Credentials.EnvFile, envFile)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q before any key was saved", cfg.GeminiAPIKey)
	}

	if err := godotenv.Write(map[string]string{geminiAPIKeyEnv: "saved-key"}, cfg.Credentials.EnvFile); err != nil {
		t.Fatal(err)
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GeminiAPIKey != "saved-key" {
		t.Errorf("GeminiAPIKey = %q, want saved-key", cfg.GeminiAPIKey)
	}
}

func TestLoadEnvironmentWinsOverEnvFile(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	_ = os.WriteFile(filepath.Join(tmp, ".env"), []byte("GEMINI_API_KEY=from-file\nGROQ_API_KEY=groq-file\n"), 0600)
	t.Setenv(geminiAPIKeyEnv, "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GeminiAPIKey != "from-env" {
		t.Errorf("GeminiAPIKey = %q, want from-env", cfg.GeminiAPIKey)
	}
	if cfg.GroqAPIKey != "groq-file" {
		t.Errorf("GroqAPIKey = %q, want groq-file", cfg.GroqAPIKey)
	}
}
