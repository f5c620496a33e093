package db

import (
	"database/sql"
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/models"
)

// RecordRender stores a rendered ora2pg.conf and makes sure the project row exists.
func RecordRender(db *sql.DB, record models.RenderRecord) (int64, error) {
	if err := UpsertProject(db, record.Project); err != nil {
		return 0, err
	}

	result, err := db.Exec("INSERT INTO renders (project, checksum, size) VALUES (?, ?, ?)",
		record.Project, record.Checksum, record.Size)
	if err != nil {
		return 0, fmt.Errorf("failed to insert render: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id err: %w", err)
	}

	return lastID, nil
}

// GetRenderHistory returns the newest renders of a project first. limit <= 0 means all.
func GetRenderHistory(db *sql.DB, project string, limit int) ([]models.RenderRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(`
		SELECT id, project, checksum, size, rendered_at
		FROM renders
		WHERE project = ?
		ORDER BY id DESC
		LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	records := []models.RenderRecord{}
	for rows.Next() {
		var r models.RenderRecord
		if err := rows.Scan(&r.ID, &r.Project, &r.Checksum, &r.Size, &r.RenderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during render row iteration: %w", err)
	}

	return records, nil
}

// LastRender returns the newest render of a project, or nil when there is none.
func LastRender(db *sql.DB, project string) (*models.RenderRecord, error) {
	records, err := GetRenderHistory(db, project, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Catalog adapts a catalog connection to the render.Recorder interface.
type Catalog struct {
	DB *sql.DB
}

func (c Catalog) RecordRender(record models.RenderRecord) error {
	_, err := RecordRender(c.DB, record)
	return err
}
