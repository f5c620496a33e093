package db

import (
	"database/sql"
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/models"
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the sqlite catalog at path and creates missing tables.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating projects table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project TEXT NOT NULL,
			checksum TEXT NOT NULL,
			size INTEGER NOT NULL,
			rendered_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating renders table: %w", err)
	}

	return db, nil
}

func UpsertProject(db *sql.DB, name string) error {
	_, err := db.Exec("INSERT INTO projects (name) VALUES (?) ON CONFLICT(name) DO NOTHING", name)
	if err != nil {
		return fmt.Errorf("failed to upsert project '%s': %w", name, err)
	}
	return nil
}

// DeleteProject removes the project row and its render history.
func DeleteProject(db *sql.DB, name string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM renders WHERE project = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete renders for project '%s': %w", name, err)
	}

	_, err = tx.Exec("DELETE FROM projects WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete project '%s': %w", name, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func GetProjects(db *sql.DB) ([]models.Project, error) {
	rows, err := db.Query("SELECT name, created_at FROM projects ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during project row iteration: %w", err)
	}

	return projects, nil
}

func GetProjectNames(db *sql.DB) (map[string]bool, error) {
	projects, err := GetProjects(db)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(projects))
	for _, p := range projects {
		names[p.Name] = true
	}
	return names, nil
}
