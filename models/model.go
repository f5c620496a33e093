package models

import "time"

// Status is the outcome of the config file create workflow.
type Status string

const (
	StatusNotFound Status = "NOT-FOUND"
	StatusConflict Status = "CONFLICT"
	StatusCreated  Status = "CREATED"
)

// Project stores catalog metadata about a project directory.
type Project struct {
	Name      string
	CreatedAt time.Time
}

// RenderRecord represents one rendered ora2pg.conf in the catalog.
type RenderRecord struct {
	ID         int64
	Project    string
	Checksum   string
	Size       int
	RenderedAt time.Time
}
