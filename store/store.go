// Package store reads and writes a project's ora2pg-conf.json.
//
// There is no locking. Concurrent writers for the same project race at the
// filesystem level and the last write wins.
package store

import (
	"fmt"
	"os"

	"github.com/andrejsstepanovs/ora2pgconf/models"
	"github.com/andrejsstepanovs/ora2pgconf/project"
)

type Store struct {
	layout project.Layout
}

func New(layout project.Layout) *Store {
	return &Store{layout: layout}
}

// GetConfigObject reads and parses the project's configuration document.
func (s *Store) GetConfigObject(projectName string) (models.ConfigObject, error) {
	if err := project.ValidateName(projectName); err != nil {
		return models.ConfigObject{}, fmt.Errorf("%w: %v", models.ErrRead, err)
	}

	path := s.layout.ConfigJSON(projectName)
	content, err := os.ReadFile(path)
	if err != nil {
		return models.ConfigObject{}, fmt.Errorf("%w: %s: %v", models.ErrRead, path, err)
	}

	obj, err := models.ParseConfigObject(content)
	if err != nil {
		return models.ConfigObject{}, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// SaveConfigJSON overwrites the project's configuration document.
func (s *Store) SaveConfigJSON(projectName string, obj models.ConfigObject) error {
	if err := project.ValidateName(projectName); err != nil {
		return fmt.Errorf("%w: %v", models.ErrWrite, err)
	}

	path := s.layout.ConfigJSON(projectName)
	if err := os.WriteFile(path, obj.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrWrite, path, err)
	}
	return nil
}

// SetValue updates one option, e.g. path "COMMON.ORACLE_HOME" with raw JSON
// value `"/opt/oracle"`, and saves the document.
func (s *Store) SetValue(projectName, path string, value []byte) error {
	obj, err := s.GetConfigObject(projectName)
	if err != nil {
		return err
	}

	updated, err := obj.SetRaw(path, value)
	if err != nil {
		return err
	}

	return s.SaveConfigJSON(projectName, updated)
}
