// Package repository implements station persistence on PostgreSQL via pgx.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStationNotFound indicates the agent has no station configuration row.
var ErrStationNotFound = errors.New("agent station not found")

// Station is an agent's dialing configuration. Extension, MobileNumber and
// SiteID are optional; which ones are required depends on the chosen
// origination strategy.
type Station struct {
	AgentID          uuid.UUID
	DisplayName      string
	Extension        string
	MobileNumber     string
	UseMobileStation bool
	SiteID           *uuid.UUID
}

// Store reads agent station configuration.
type Store interface {
	GetStation(ctx context.Context, agentID uuid.UUID) (Station, error)
}

// Repository is the pgx-backed Store implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on top of a connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStation loads the station row for an agent.
func (r *Repository) GetStation(ctx context.Context, agentID uuid.UUID) (Station, error) {
	var s Station
	var extension, mobileNumber *string
	err := r.pool.QueryRow(ctx, `
		SELECT agent_id, display_name, extension, mobile_number, use_mobile_station, site_id
		FROM agent_stations
		WHERE agent_id = $1`,
		agentID,
	).Scan(&s.AgentID, &s.DisplayName, &extension, &mobileNumber, &s.UseMobileStation, &s.SiteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Station{}, ErrStationNotFound
	}
	if err != nil {
		return Station{}, err
	}

	if extension != nil {
		s.Extension = *extension
	}
	if mobileNumber != nil {
		s.MobileNumber = *mobileNumber
	}

	return s, nil
}
