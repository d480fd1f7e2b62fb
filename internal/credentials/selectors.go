package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
)

const envKey = "GEMINI_API_KEY"

var _ Selector = (*PromptSelector)(nil)
var _ Selector = (*PendingSelector)(nil)
var _ Selector = (*DeferredSelector)(nil)

// PromptSelector asks for a key in the terminal and remembers it in an
// env file so the next run starts with it.
type PromptSelector struct {
	store   *Store
	envFile string
	ask     func(ctx context.Context) (string, error)
}

func NewPromptSelector(store *Store, envFile string) *PromptSelector {
	return &PromptSelector{store: store, envFile: envFile, ask: askForKey}
}

func (p *PromptSelector) HasSelected(ctx context.Context) bool {
	return p.store.HasSelected(ctx)
}

func (p *PromptSelector) Select(ctx context.Context) error {
	key, err := p.ask(ctx)
	if err != nil {
		return err
	}
	if err := p.store.Set(key); err != nil {
		return err
	}
	if p.envFile == "" {
		return nil
	}
	if err := SaveEnvKey(p.envFile, key); err != nil {
		return err
	}
	slog.Info("Saved Gemini API key", "file", p.envFile)
	return nil
}

func askForKey(ctx context.Context) (string, error) {
	var key string
	input := huh.NewInput().
		Title("Select a Gemini API key").
		Description("Image generation needs a key from a billing-enabled Google Cloud project.").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("key is required")
			}
			return nil
		}).
		Value(&key)
	err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return key, nil
}

// SaveEnvKey merges GEMINI_API_KEY into the env file, keeping other entries.
func SaveEnvKey(path, key string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	env[envKey] = key
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// PendingSelector is used when the selection UI lives in a browser. Select
// only raises a flag that the page polls; Resolve is called when the page
// submits a key.
type PendingSelector struct {
	store *Store

	mu       sync.Mutex
	required bool
}

func NewPendingSelector(store *Store) *PendingSelector {
	return &PendingSelector{store: store}
}

func (p *PendingSelector) HasSelected(ctx context.Context) bool {
	return p.store.HasSelected(ctx)
}

func (p *PendingSelector) Select(_ context.Context) error {
	p.mu.Lock()
	p.required = true
	p.mu.Unlock()
	return nil
}

func (p *PendingSelector) SelectionRequired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.required
}

func (p *PendingSelector) Resolve(key string) error {
	if err := p.store.Set(key); err != nil {
		return err
	}
	p.mu.Lock()
	p.required = false
	p.mu.Unlock()
	return nil
}

// DeferredSelector holds a selection request until the caller owns the
// terminal again. Select only records the request; SelectPending runs the
// wrapped selector for it.
type DeferredSelector struct {
	inner Selector

	mu        sync.Mutex
	requested bool
}

func NewDeferredSelector(inner Selector) *DeferredSelector {
	return &DeferredSelector{inner: inner}
}

func (d *DeferredSelector) HasSelected(ctx context.Context) bool {
	return d.inner.HasSelected(ctx)
}

func (d *DeferredSelector) Select(_ context.Context) error {
	d.mu.Lock()
	d.requested = true
	d.mu.Unlock()
	return nil
}

func (d *DeferredSelector) Requested() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requested
}

// SelectPending opens the wrapped selector once for any recorded requests.
// It does nothing when none are pending.
func (d *DeferredSelector) SelectPending(ctx context.Context) error {
	d.mu.Lock()
	requested := d.requested
	d.requested = false
	d.mu.Unlock()

	if !requested {
		return nil
	}
	return d.inner.Select(ctx)
}
