// Package render turns a project's ora2pg-conf.json into ora2pg.conf.
//
// Templates use text/template syntax with the sprig function set. The
// configuration document is bound under the single name "config":
//
//	ORACLE_HOME {{ .config.COMMON.ORACLE_HOME }}
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/andrejsstepanovs/ora2pgconf/file"
	"github.com/andrejsstepanovs/ora2pgconf/models"
	"github.com/andrejsstepanovs/ora2pgconf/project"
	"github.com/andrejsstepanovs/ora2pgconf/store"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const configSlot = "config"

// Recorder receives a record for every ora2pg.conf written.
type Recorder interface {
	RecordRender(record models.RenderRecord) error
}

type Renderer struct {
	layout   project.Layout
	store    *store.Store
	source   TemplateSource
	recorder Recorder
	log      *zap.Logger
}

// New creates a Renderer. recorder and log may be nil.
func New(layout project.Layout, st *store.Store, source TemplateSource, recorder Recorder, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		layout:   layout,
		store:    st,
		source:   source,
		recorder: recorder,
		log:      log,
	}
}

// Render merges obj into the template and returns the file content.
func (r *Renderer) Render(ctx context.Context, obj models.ConfigObject) ([]byte, error) {
	text, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTemplate, err)
	}

	tpl, err := template.New(r.source.Name()).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compile %s: %v", models.ErrTemplate, r.source.Name(), err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{configSlot: obj.Values()}); err != nil {
		return nil, fmt.Errorf("%w: failed to execute %s: %v", models.ErrTemplate, r.source.Name(), err)
	}

	return buf.Bytes(), nil
}

// SaveConfigFile renders obj and overwrites the project's ora2pg.conf.
func (r *Renderer) SaveConfigFile(ctx context.Context, projectName string, obj models.ConfigObject) error {
	return r.save(ctx, projectName, obj, false)
}

func (r *Renderer) save(ctx context.Context, projectName string, obj models.ConfigObject, exclusive bool) error {
	if err := project.ValidateName(projectName); err != nil {
		return fmt.Errorf("%w: %v", models.ErrWrite, err)
	}

	content, err := r.Render(ctx, obj)
	if err != nil {
		return err
	}

	path := r.layout.ConfigFile(projectName)
	if err := writeFile(path, content, exclusive); err != nil {
		return err
	}

	r.record(projectName, content)
	return nil
}

// CreateConfigFile renders ora2pg.conf from ora2pg-conf.json unless it
// already exists. NOT-FOUND and CONFLICT are normal outcomes, not errors.
// Read, parse, template and write failures are returned as errors.
func (r *Renderer) CreateConfigFile(ctx context.Context, projectName string) (models.Status, error) {
	if err := project.ValidateName(projectName); err != nil {
		return "", err
	}

	if !file.Exists(r.layout.ConfigDir(projectName)) {
		return models.StatusNotFound, nil
	}
	if file.Exists(r.layout.ConfigFile(projectName)) {
		return models.StatusConflict, nil
	}

	obj, err := r.store.GetConfigObject(projectName)
	if err != nil {
		return "", err
	}

	err = r.save(ctx, projectName, obj, true)
	if errors.Is(err, fs.ErrExist) {
		// created by someone else between the check and the write
		return models.StatusConflict, nil
	}
	if err != nil {
		return "", err
	}

	return models.StatusCreated, nil
}

// RegenerateConfigFile renders ora2pg.conf from ora2pg-conf.json,
// overwriting any existing file.
func (r *Renderer) RegenerateConfigFile(ctx context.Context, projectName string) error {
	obj, err := r.store.GetConfigObject(projectName)
	if err != nil {
		return err
	}
	return r.SaveConfigFile(ctx, projectName, obj)
}

// DeleteConfigFile removes ora2pg.conf. A missing file is AlreadyDone.
// Failures are logged and returned in the Result.
func (r *Renderer) DeleteConfigFile(projectName string) file.Result {
	if err := project.ValidateName(projectName); err != nil {
		return file.Result{Outcome: file.Failed, Err: err}
	}

	res := file.Remove(r.layout.ConfigFile(projectName))
	if res.Outcome == file.Failed {
		r.log.Error("failed to delete config file",
			zap.String("project", projectName), zap.String("path", res.Path), zap.Error(res.Err))
	}
	return res
}

func (r *Renderer) record(projectName string, content []byte) {
	if r.recorder == nil {
		return
	}

	record := models.RenderRecord{
		Project:  projectName,
		Checksum: Checksum(content),
		Size:     len(content),
	}
	if err := r.recorder.RecordRender(record); err != nil {
		r.log.Error("failed to record render",
			zap.String("project", projectName), zap.Error(err))
	}
}

// Checksum is the hex xxhash64 of content.
func Checksum(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

var openFile = func(path string, flags int) (io.WriteCloser, error) {
	return os.OpenFile(path, flags, 0o644)
}

func writeFile(path string, content []byte, exclusive bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if exclusive {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := openFile(path, flags)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrWrite, path, err)
	}

	_, err = f.Write(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if exclusive {
			// the file is ours, a partial one would read as CONFLICT later
			_ = os.Remove(path)
		}
		return fmt.Errorf("%w: %s: %w", models.ErrWrite, path, err)
	}
	return nil
}
