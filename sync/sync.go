package sync

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"github.com/andrejsstepanovs/ora2pgconf/db"
	"go.uber.org/zap"
)

// Lister lists project directory names on disk.
type Lister interface {
	ListProjectDirectories() ([]string, error)
}

// Result counts the catalog changes made by RunSync.
type Result struct {
	Added     []string
	Removed   []string
	Unchanged int
}

// RunSync reconciles the catalog with the project directories on disk.
// Directories missing from the catalog are added and catalog rows without a
// directory are removed together with their render history.
func RunSync(ctx context.Context, projects Lister, dbConn *sql.DB, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	localDirs, err := projects.ListProjectDirectories()
	if err != nil {
		return nil, fmt.Errorf("error listing project directories: %w", err)
	}

	localNames := make(map[string]bool, len(localDirs))
	for _, name := range localDirs {
		localNames[name] = true
	}

	existing, err := db.GetProjectNames(dbConn)
	if err != nil {
		return nil, fmt.Errorf("error getting catalog projects: %w", err)
	}

	result := &Result{Added: []string{}, Removed: []string{}}

	log.Debug("processing new projects")
	for _, name := range localDirs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if existing[name] {
			result.Unchanged++
			continue
		}

		log.Info("adding project to catalog", zap.String("project", name))
		if err := db.UpsertProject(dbConn, name); err != nil {
			return result, fmt.Errorf("error adding project %s: %w", name, err)
		}
		result.Added = append(result.Added, name)
	}

	log.Debug("processing removed projects")
	for _, name := range slices.Sorted(maps.Keys(existing)) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if localNames[name] {
			continue
		}

		log.Info("removing deleted project from catalog", zap.String("project", name))
		if err := db.DeleteProject(dbConn, name); err != nil {
			return result, fmt.Errorf("error removing project %s: %w", name, err)
		}
		result.Removed = append(result.Removed, name)
	}

	return result, nil
}
