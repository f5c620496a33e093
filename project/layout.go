package project

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	configDirName  = "config"
	configJSONName = "ora2pg-conf.json"
	configFileName = "ora2pg.conf"
)

// Layout derives on-disk locations from a project name and the project root.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// ProjectDir is {root}/{project}.
func (l Layout) ProjectDir(project string) string {
	return filepath.Join(l.Root, project)
}

// ConfigDir is {root}/{project}/config.
func (l Layout) ConfigDir(project string) string {
	return filepath.Join(l.Root, project, configDirName)
}

// ConfigJSON is {root}/{project}/config/ora2pg-conf.json.
func (l Layout) ConfigJSON(project string) string {
	return filepath.Join(l.ConfigDir(project), configJSONName)
}

// ConfigFile is {root}/{project}/config/ora2pg.conf.
func (l Layout) ConfigFile(project string) string {
	return filepath.Join(l.ConfigDir(project), configFileName)
}

// ValidateName rejects names that would resolve outside of the root.
func ValidateName(project string) error {
	switch {
	case strings.TrimSpace(project) == "":
		return fmt.Errorf("project name cannot be empty")
	case project == "." || project == "..":
		return fmt.Errorf("invalid project name %q", project)
	case strings.ContainsAny(project, `/\`):
		return fmt.Errorf("project name %q cannot contain a path separator", project)
	}
	return nil
}
