package project

import (
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/file"
	"go.uber.org/zap"
)

// Manager creates, lists and removes project directories under a root.
type Manager struct {
	layout Layout
	log    *zap.Logger
}

func NewManager(layout Layout, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{layout: layout, log: log}
}

func (m *Manager) Layout() Layout {
	return m.layout
}

// CreateProjectDirectory creates {root}/{project}/config. An existing
// directory is AlreadyDone. Failures are logged and returned in the Result.
func (m *Manager) CreateProjectDirectory(project string) file.Result {
	if err := ValidateName(project); err != nil {
		return file.Result{Outcome: file.Failed, Err: err}
	}

	res := file.EnsureDir(m.layout.ConfigDir(project))
	if res.Outcome == file.Failed {
		m.log.Error("failed to create project directory",
			zap.String("project", project), zap.String("path", res.Path), zap.Error(res.Err))
	}
	return res
}

// DeleteProjectDirectory removes the whole project tree.
func (m *Manager) DeleteProjectDirectory(project string) file.Result {
	if err := ValidateName(project); err != nil {
		return file.Result{Outcome: file.Failed, Err: err}
	}

	res := file.RemoveAll(m.layout.ProjectDir(project))
	if res.Outcome == file.Failed {
		m.log.Error("failed to delete project directory",
			zap.String("project", project), zap.String("path", res.Path), zap.Error(res.Err))
	}
	return res
}

// ListProjectDirectories returns directory names directly under the root.
func (m *Manager) ListProjectDirectories() ([]string, error) {
	dirs, err := file.ListDirectories(m.layout.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return dirs, nil
}

// ListProjectFiles returns file names directly under the project directory.
func (m *Manager) ListProjectFiles(project string) ([]string, error) {
	if err := ValidateName(project); err != nil {
		return nil, err
	}

	files, err := file.ListFiles(m.layout.ProjectDir(project))
	if err != nil {
		return nil, fmt.Errorf("failed to list files of project '%s': %w", project, err)
	}
	return files, nil
}

func (m *Manager) FileExists(path string) bool {
	return file.Exists(path)
}
