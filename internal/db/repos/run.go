// Package repos provides data access for the run history
package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/celestiaorg/gcpiac/internal/db/models"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// RunRepository provides access to run-related database operations
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new run repository instance
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create creates a new run in the database
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if _, err := models.ParseAction(string(run.Action)); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// Update updates an existing run in the database
func (r *RunRepository) Update(ctx context.Context, run *models.Run) error {
	if run.ID == uuid.Nil {
		return fmt.Errorf("run id is required")
	}
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves a run by its ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// List retrieves runs, most recent first
func (r *RunRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Run, error) {
	query := r.db.WithContext(ctx).Model(&models.Run{})
	limit := models.DefaultLimit
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.Offset > 0 {
			query = query.Offset(opts.Offset)
		}
		if opts.Action != "" {
			query = query.Where("action = ?", opts.Action)
		}
	}

	var runs []models.Run
	err := query.Order(models.RunStartedAtField + " DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
