package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andrejsstepanovs/ora2pgconf/client"
)

// TemplateSource supplies the ora2pg.conf template text.
type TemplateSource interface {
	Name() string
	Load(ctx context.Context) (string, error)
}

// DirSource reads the template from a local resource directory.
type DirSource struct {
	Dir      string
	Filename string
}

func NewDirSource(dir, filename string) DirSource {
	return DirSource{Dir: dir, Filename: filename}
}

func (s DirSource) Name() string {
	return s.Filename
}

func (s DirSource) Load(_ context.Context) (string, error) {
	path := filepath.Join(s.Dir, s.Filename)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return string(content), nil
}

// HTTPSource downloads the template from a resource URL.
type HTTPSource struct {
	BaseURL  string
	Filename string
	Options  client.Options
}

func NewHTTPSource(baseURL, filename string, opts client.Options) HTTPSource {
	return HTTPSource{BaseURL: baseURL, Filename: filename, Options: opts}
}

func (s HTTPSource) Name() string {
	return s.Filename
}

func (s HTTPSource) Load(ctx context.Context) (string, error) {
	body, err := client.FetchTemplate(ctx, s.BaseURL, s.Filename, s.Options)
	if err != nil {
		return "", fmt.Errorf("failed to fetch template %s from %s: %w", s.Filename, s.BaseURL, err)
	}
	return body, nil
}
