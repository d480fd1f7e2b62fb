package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"storyboard/internal/credentials"
	"storyboard/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		GeminiAPIKey: "test-key",
		Analysis: config.AnalysisConfig{
			Provider:  config.ProviderGemini,
			Model:     "text-model",
			GroqModel: "groq-model",
		},
		Render: config.RenderConfig{Model: "image-model", AspectRatio: "16:9", ImageSize: "1K"},
		Export: config.ExportConfig{
			OutputDir:   t.TempDir(),
			Format:      config.FormatPNG,
			JPEGQuality: 85,
		},
		Credentials: config.CredentialsConfig{EnvFile: filepath.Join(t.TempDir(), ".env")},
	}
}

func TestBuildService(t *testing.T) {
	tests := []struct {
		name         string
		surface      Surface
		wantPending  bool
		wantDeferred bool
	}{
		{name: "terminal", surface: SurfaceTerminal, wantDeferred: true},
		{name: "http", surface: SurfaceHTTP, wantPending: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := BuildService(context.Background(), testConfig(t), tt.surface)
			if err != nil {
				t.Fatalf("BuildService() error: %v", err)
			}
			defer func() { _ = svc.Close() }()

			if svc.Board() == nil || svc.Exporter() == nil || svc.Metrics() == nil {
				t.Fatal("BuildService() left components unset")
			}
			if (svc.Pending() != nil) != tt.wantPending {
				t.Errorf("Pending() = %v, wantPending %v", svc.Pending(), tt.wantPending)
			}
			if (svc.Deferred() != nil) != tt.wantDeferred {
				t.Errorf("Deferred() = %v, wantDeferred %v", svc.Deferred(), tt.wantDeferred)
			}
			if !svc.Selector().HasSelected(context.Background()) {
				t.Error("key from config should count as selected")
			}
			if err := svc.EnsureCredential(context.Background()); err != nil {
				t.Errorf("EnsureCredential() error: %v", err)
			}
		})
	}
}

func TestBuildServiceGroqRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.Provider = config.ProviderGroq

	if _, err := BuildService(context.Background(), cfg, SurfaceTerminal); err == nil {
		t.Error("BuildService() should fail without GROQ_API_KEY")
	}

	cfg.GroqAPIKey = "groq-key"
	svc, err := BuildService(context.Background(), cfg, SurfaceTerminal)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}
	_ = svc.Close()
}

func TestBuildServiceWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKey = ""

	svc, err := BuildService(context.Background(), cfg, SurfaceHTTP)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}

	if _, err := svc.Keys().APIKey(context.Background()); err != credentials.ErrNoKey {
		t.Errorf("APIKey() error = %v, want ErrNoKey", err)
	}
	if err := svc.EnsureCredential(context.Background()); err != nil {
		t.Fatalf("EnsureCredential() error: %v", err)
	}
	if !svc.Pending().SelectionRequired() {
		t.Error("startup check should request a key selection")
	}
}

func TestExportBoard(t *testing.T) {
	cfg := testConfig(t)
	svc, err := BuildService(context.Background(), cfg, SurfaceTerminal)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}

	result, err := svc.ExportBoard(context.Background(), "empty board")
	if err != nil {
		t.Fatalf("ExportBoard() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Export.OutputDir, result.Session, "shots.json")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
	if len(result.Images) != 0 {
		t.Errorf("Images = %v, want none", result.Images)
	}
}

type countingSelector struct {
	calls int
}

func (c *countingSelector) HasSelected(context.Context) bool { return true }

func (c *countingSelector) Select(context.Context) error {
	c.calls++
	return nil
}

func TestResolveCredentialRequest(t *testing.T) {
	ctx := context.Background()
	dialog := &countingSelector{}
	deferred := credentials.NewDeferredSelector(dialog)
	svc := NewService(ServiceOptions{Selector: dialog, Deferred: deferred})

	// A render inside a spinner only records the request.
	if err := deferred.Select(ctx); err != nil {
		t.Fatal(err)
	}
	if dialog.calls != 0 {
		t.Fatalf("dialog opened while the terminal was busy (%d calls)", dialog.calls)
	}

	if err := svc.ResolveCredentialRequest(ctx); err != nil {
		t.Fatalf("ResolveCredentialRequest() error: %v", err)
	}
	if dialog.calls != 1 {
		t.Errorf("dialog calls = %d, want 1", dialog.calls)
	}

	if err := svc.ResolveCredentialRequest(ctx); err != nil {
		t.Fatal(err)
	}
	if dialog.calls != 1 {
		t.Errorf("dialog reopened without a new request (%d calls)", dialog.calls)
	}
}

func TestResolveCredentialRequestHTTP(t *testing.T) {
	svc, err := BuildService(context.Background(), testConfig(t), SurfaceHTTP)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}
	defer func() { _ = svc.Close() }()

	if err := svc.ResolveCredentialRequest(context.Background()); err != nil {
		t.Errorf("ResolveCredentialRequest() error: %v", err)
	}
}
