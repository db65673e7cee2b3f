package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clusterops/mesosctl/internal/model"
	"github.com/clusterops/mesosctl/internal/repository"
)

// ScheduleError is a local precondition failure on the maintenance schedule,
// raised before any write reaches the master.
type ScheduleError struct {
	Msg string
}

func (e *ScheduleError) Error() string {
	return e.Msg
}

// ClusterView combines the schedule and machine states for display.
type ClusterView struct {
	Schedule *model.Schedule      `json:"schedule"`
	Status   *model.ClusterStatus `json:"status"`
}

// MaintenanceService defines the maintenance operations exposed by the CLI.
// No ordering is enforced between calls: the cordon/drain/up/uncordon
// sequence is an operational protocol the master owns, and any step it
// rejects is surfaced as-is.
type MaintenanceService interface {
	Cordon(ctx context.Context, id model.MachineID, duration time.Duration) error
	Uncordon(ctx context.Context, id model.MachineID) error
	Drain(ctx context.Context, id model.MachineID) error
	Up(ctx context.Context, id model.MachineID) error
	Status(ctx context.Context) (*ClusterView, error)
}

// maintenanceService implements MaintenanceService
type maintenanceService struct {
	repo            repository.MesosRepository
	allowReschedule bool
	logger          *slog.Logger
	now             func() time.Time
}

// NewMaintenanceService creates a maintenance service on top of the master
// client. allowReschedule permits cordoning a machine that already holds a
// window in the schedule.
func NewMaintenanceService(repo repository.MesosRepository, allowReschedule bool, logger *slog.Logger) MaintenanceService {
	return &maintenanceService{
		repo:            repo,
		allowReschedule: allowReschedule,
		logger:          logger,
		now:             time.Now,
	}
}

// Cordon schedules a maintenance window for the machine starting now. The
// schedule is one document on the master, so this is an explicit
// read-modify-write: fetch, append, post back. Concurrent invocations can
// race and lose updates; the API offers no compare-and-swap.
func (s *maintenanceService) Cordon(ctx context.Context, id model.MachineID, duration time.Duration) error {
	// A draining machine is already scheduled and the master will not
	// accept a second entry for it.
	status, err := s.repo.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to check maintenance status: %w", err)
	}
	if status.IsDraining(id) {
		return &ScheduleError{Msg: fmt.Sprintf(
			"machine %s is already in draining mode, cannot add to maintenance schedule more than once", id)}
	}

	schedule, err := s.repo.GetSchedule(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch maintenance schedule: %w", err)
	}

	if schedule.Contains(id) && !s.allowReschedule {
		return &ScheduleError{Msg: fmt.Sprintf(
			"machine %s is already scheduled in a maintenance window, cannot schedule again", id)}
	}

	updated := schedule.Append(id, s.now(), duration)
	if err := s.repo.PostSchedule(ctx, &updated); err != nil {
		return fmt.Errorf("failed to post updated schedule: %w", err)
	}

	s.logger.Info("machine cordoned",
		slog.String("machine", id.String()),
		slog.Duration("duration", duration),
		slog.Int("windows", len(updated.Windows)),
	)

	return nil
}

// Uncordon removes the machine from every maintenance window, draining or
// not. A machine that is not scheduled at all is a no-op: nothing is posted,
// so the schedule document stays untouched.
func (s *maintenanceService) Uncordon(ctx context.Context, id model.MachineID) error {
	status, err := s.repo.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to check maintenance status: %w", err)
	}
	if !status.IsDraining(id) {
		// Not a failure, but worth telling the operator: the machine
		// was never drained, or was already brought back up.
		s.logger.Warn("machine is not in draining mode, removing from schedule anyway",
			slog.String("machine", id.String()),
		)
	}

	schedule, err := s.repo.GetSchedule(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch maintenance schedule: %w", err)
	}

	updated, removed := schedule.Remove(id)
	if !removed {
		s.logger.Info("machine not present in any maintenance window, nothing to uncordon",
			slog.String("machine", id.String()),
		)
		return nil
	}

	if err := s.repo.PostSchedule(ctx, &updated); err != nil {
		return fmt.Errorf("failed to post updated schedule: %w", err)
	}

	s.logger.Info("machine uncordoned",
		slog.String("machine", id.String()),
		slog.Int("windows", len(updated.Windows)),
	)

	return nil
}

// Drain marks the machine as down. The master rejects the call for machines
// outside an active maintenance window; that rejection is surfaced unchanged
// rather than pre-checked here.
func (s *maintenanceService) Drain(ctx context.Context, id model.MachineID) error {
	if err := s.repo.MachineDown(ctx, id); err != nil {
		return err
	}

	s.logger.Info("machine marked down",
		slog.String("machine", id.String()),
	)

	return nil
}

// Up marks the machine as available again. The maintenance window stays in
// the schedule until an explicit uncordon.
func (s *maintenanceService) Up(ctx context.Context, id model.MachineID) error {
	if err := s.repo.MachineUp(ctx, id); err != nil {
		return err
	}

	s.logger.Info("machine marked up",
		slog.String("machine", id.String()),
	)

	return nil
}

// Status returns the current schedule and machine states.
func (s *maintenanceService) Status(ctx context.Context) (*ClusterView, error) {
	schedule, err := s.repo.GetSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch maintenance schedule: %w", err)
	}

	status, err := s.repo.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check maintenance status: %w", err)
	}

	return &ClusterView{Schedule: schedule, Status: status}, nil
}
