package repos

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/celestiaorg/gcpiac/internal/db"
	"github.com/celestiaorg/gcpiac/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	ctx     context.Context
	runRepo *RunRepository
}

func (s *DBRepositoryTestSuite) SetupTest() {
	// Private in-memory database per test
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	sqlDB, err := gdb.DB()
	require.NoError(s.T(), err)
	// every pooled connection to :memory: would open its own database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(s.T(), db.Migrate(gdb), "Failed to run database migrations")

	s.db = gdb
	s.runRepo = NewRunRepository(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	_ = db.Close(s.db)
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestRun(action models.Action, startedAt time.Time) *models.Run {
	run := &models.Run{
		Action:    action,
		State:     "Applying",
		StartedAt: startedAt,
	}
	s.Require().NoError(s.runRepo.Create(s.ctx, run))
	return run
}
