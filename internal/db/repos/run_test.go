package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/celestiaorg/gcpiac/internal/db/models"
)

type RunRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestRunRepository(t *testing.T) {
	suite.Run(t, new(RunRepositoryTestSuite))
}

func (s *RunRepositoryTestSuite) TestCreate() {
	run := s.createTestRun(models.ActionApply, time.Now())
	s.NotEqual(uuid.Nil, run.ID)

	err := s.runRepo.Create(s.ctx, &models.Run{Action: "plan", State: "Idle", StartedAt: time.Now()})
	s.Error(err)
}

func (s *RunRepositoryTestSuite) TestUpdateAndGetByID() {
	run := s.createTestRun(models.ActionApply, time.Now().UTC())

	finished := run.StartedAt.Add(time.Minute)
	run.State = "Done"
	run.Success = true
	run.Instance = "vm-1"
	run.IP = "1.2.3.4"
	run.FinishedAt = &finished
	s.NoError(s.runRepo.Update(s.ctx, run))

	found, err := s.runRepo.GetByID(s.ctx, run.ID)
	s.NoError(err)
	s.Equal("Done", found.State)
	s.True(found.Success)
	s.Equal("vm-1", found.Instance)
	s.Equal("1.2.3.4", found.IP)
	s.True(found.Finished())

	_, err = s.runRepo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrNotFound)

	s.Error(s.runRepo.Update(s.ctx, &models.Run{}))
}

func (s *RunRepositoryTestSuite) TestList() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := s.createTestRun(models.ActionApply, base)
	second := s.createTestRun(models.ActionDestroy, base.Add(time.Hour))
	third := s.createTestRun(models.ActionApply, base.Add(2*time.Hour))

	runs, err := s.runRepo.List(s.ctx, nil)
	s.NoError(err)
	s.Require().Len(runs, 3)
	s.Equal(third.ID, runs[0].ID)
	s.Equal(second.ID, runs[1].ID)
	s.Equal(first.ID, runs[2].ID)

	runs, err = s.runRepo.List(s.ctx, &models.ListOptions{Limit: 1})
	s.NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(third.ID, runs[0].ID)

	runs, err = s.runRepo.List(s.ctx, &models.ListOptions{Action: models.ActionApply, Offset: 1})
	s.NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(first.ID, runs[0].ID)
}
