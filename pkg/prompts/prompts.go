package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Shots  ShotPrompts   `yaml:"shots"`
}

type SystemPrompts struct {
	Shots string `yaml:"shots"`
}

type ShotPrompts struct {
	Gemini string `yaml:"gemini"`
	Groq   string `yaml:"groq"`
}

type ShotsParams struct {
	Script string
}

// Load reads prompts.yaml from the working directory and falls back to the
// built-in prompts when the file does not exist.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No prompts.yaml found, using built-in prompts")
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func Default() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("failed to parse built-in prompts: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderGeminiShots(params ShotsParams) (string, error) {
	return render(p.Shots.Gemini, params)
}

func (p *Prompts) RenderGroqShots(params ShotsParams) (string, error) {
	return render(p.Shots.Groq, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
