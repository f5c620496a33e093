package inspect

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/db"
	"github.com/andrejsstepanovs/ora2pgconf/models"
	"github.com/andrejsstepanovs/ora2pgconf/project"
	"github.com/andrejsstepanovs/ora2pgconf/schema"
	"github.com/andrejsstepanovs/ora2pgconf/store"
)

// Report describes the state of one project's configuration artifacts.
type Report struct {
	Project       string
	ConfigDir     bool
	ConfigJSON    bool
	KeysValid     bool
	KeysProblem   string
	ConfigFile    bool
	Files         []string
	LastRender    *models.RenderRecord
	CatalogListed bool
}

// Run inspects a project. dbConn may be nil when the catalog is disabled.
func Run(manager *project.Manager, st *store.Store, dbConn *sql.DB, projectName string) (*Report, error) {
	if err := project.ValidateName(projectName); err != nil {
		return nil, err
	}

	layout := manager.Layout()
	if !manager.FileExists(layout.ProjectDir(projectName)) {
		return nil, fmt.Errorf("project '%s' not found", projectName)
	}

	report := &Report{
		Project:    projectName,
		ConfigDir:  manager.FileExists(layout.ConfigDir(projectName)),
		ConfigJSON: manager.FileExists(layout.ConfigJSON(projectName)),
		ConfigFile: manager.FileExists(layout.ConfigFile(projectName)),
	}

	files, err := manager.ListProjectFiles(projectName)
	if err != nil {
		return nil, err
	}
	report.Files = files

	if report.ConfigJSON {
		obj, err := st.GetConfigObject(projectName)
		switch {
		case errors.Is(err, models.ErrParse):
			report.KeysProblem = err.Error()
		case err != nil:
			return nil, fmt.Errorf("error reading configuration: %w", err)
		default:
			if err := schema.Validate(obj); err != nil {
				report.KeysProblem = err.Error()
			} else {
				report.KeysValid = true
			}
		}
	}

	if dbConn != nil {
		names, err := db.GetProjectNames(dbConn)
		if err != nil {
			return nil, fmt.Errorf("error reading catalog: %w", err)
		}
		report.CatalogListed = names[projectName]

		report.LastRender, err = db.LastRender(dbConn, projectName)
		if err != nil {
			return nil, fmt.Errorf("error reading render history: %w", err)
		}
	}

	return report, nil
}
