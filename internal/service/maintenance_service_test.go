package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/clusterops/mesosctl/internal/config"
	"github.com/clusterops/mesosctl/internal/logger"
	"github.com/clusterops/mesosctl/internal/mesosmock"
	"github.com/clusterops/mesosctl/internal/model"
	"github.com/clusterops/mesosctl/internal/repository"
)

// newTestService runs a mock master and returns a service talking to it,
// plus the master for direct state assertions.
func newTestService(t *testing.T, allowReschedule bool) (MaintenanceService, *mesosmock.Master) {
	t.Helper()
	log := logger.New()

	master := mesosmock.NewMaster(log)
	ts := httptest.NewServer(master.Router())
	t.Cleanup(ts.Close)

	repo, err := repository.NewMesosRepository(config.MasterConfig{
		Address: ts.URL,
		Timeout: 5 * time.Second,
	}, log)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}

	return NewMaintenanceService(repo, allowReschedule, log), master
}

func TestCordonAddsMachineToSchedule(t *testing.T) {
	svc, master := newTestService(t, false)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}

	schedule, _ := master.Snapshot()
	if !schedule.Contains(id) {
		t.Fatal("schedule should contain cordoned machine")
	}
	if len(schedule.Windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(schedule.Windows))
	}
}

func TestCordonRejectsDrainingMachine(t *testing.T) {
	// allowReschedule on, so only the draining check can reject.
	svc, _ := newTestService(t, true)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("first cordon: %v", err)
	}

	err := svc.Cordon(context.Background(), id, time.Hour)
	var schedErr *ScheduleError
	if !errors.As(err, &schedErr) {
		t.Fatalf("expected *ScheduleError for draining machine, got %v", err)
	}
}

func TestCordonRejectsScheduledMachineByDefault(t *testing.T) {
	svc, _ := newTestService(t, false)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("first cordon: %v", err)
	}
	// Drain takes the machine out of draining mode and into down state,
	// so the second cordon hits the already-scheduled check.
	if err := svc.Drain(context.Background(), id); err != nil {
		t.Fatalf("drain: %v", err)
	}

	err := svc.Cordon(context.Background(), id, time.Hour)
	var schedErr *ScheduleError
	if !errors.As(err, &schedErr) {
		t.Fatalf("expected *ScheduleError for scheduled machine, got %v", err)
	}
}

func TestCordonAllowRescheduleAddsSecondWindow(t *testing.T) {
	svc, master := newTestService(t, true)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("first cordon: %v", err)
	}
	if err := svc.Drain(context.Background(), id); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("reschedule cordon: %v", err)
	}

	schedule, _ := master.Snapshot()
	if len(schedule.Windows) != 2 {
		t.Fatalf("expected 2 windows after reschedule, got %d", len(schedule.Windows))
	}
}

func TestDrainWithoutActiveWindowSurfacesRejection(t *testing.T) {
	svc, _ := newTestService(t, false)
	id := model.NewMachineID("10.0.0.1", "")

	err := svc.Drain(context.Background(), id)
	if err == nil {
		t.Fatal("expected drain of unscheduled machine to fail")
	}

	// The master's rejection must come through unchanged, not be masked
	// by any local validation.
	var apiErr *repository.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError from the master, got %T: %v", err, err)
	}
}

func TestUpDoesNotAlterSchedule(t *testing.T) {
	svc, master := newTestService(t, false)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}
	if err := svc.Drain(context.Background(), id); err != nil {
		t.Fatalf("drain: %v", err)
	}

	before, _ := master.Snapshot()
	if err := svc.Up(context.Background(), id); err != nil {
		t.Fatalf("up: %v", err)
	}
	after, down := master.Snapshot()

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("up changed the schedule document (-before +after):\n%s", diff)
	}
	if len(down) != 0 {
		t.Fatalf("machine still down after up: %+v", down)
	}
}

func TestUncordonRemovesMachineFromAllWindows(t *testing.T) {
	svc, master := newTestService(t, true)
	id := model.NewMachineID("10.0.0.1", "")
	other := model.NewMachineID("10.0.0.2", "")

	// Two windows for id (reschedule path), one for another machine.
	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}
	if err := svc.Drain(context.Background(), id); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("second cordon: %v", err)
	}
	if err := svc.Cordon(context.Background(), other, time.Hour); err != nil {
		t.Fatalf("cordon other: %v", err)
	}

	if err := svc.Uncordon(context.Background(), id); err != nil {
		t.Fatalf("uncordon: %v", err)
	}

	schedule, _ := master.Snapshot()
	if schedule.Contains(id) {
		t.Fatal("machine still present in schedule after uncordon")
	}
	if !schedule.Contains(other) {
		t.Fatal("uncordon removed an unrelated machine")
	}
}

func TestUncordonTwiceIsNoOp(t *testing.T) {
	svc, master := newTestService(t, false)
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(context.Background(), id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}
	if err := svc.Uncordon(context.Background(), id); err != nil {
		t.Fatalf("first uncordon: %v", err)
	}

	before, _ := master.Snapshot()
	if err := svc.Uncordon(context.Background(), id); err != nil {
		t.Fatalf("second uncordon must be a no-op, got: %v", err)
	}
	after, _ := master.Snapshot()

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("second uncordon changed the schedule (-before +after):\n%s", diff)
	}
}

func TestMaintenanceSequenceEndToEnd(t *testing.T) {
	svc, master := newTestService(t, false)
	ctx := context.Background()
	id := model.NewMachineID("10.0.0.1", "node1")

	schedule, down := master.Snapshot()
	if len(schedule.Windows) != 0 || len(down) != 0 {
		t.Fatal("master should start empty")
	}

	if err := svc.Cordon(ctx, id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}
	schedule, _ = master.Snapshot()
	if !schedule.Contains(id) {
		t.Fatal("schedule missing machine after cordon")
	}

	if err := svc.Drain(ctx, id); err != nil {
		t.Fatalf("drain: %v", err)
	}
	_, down = master.Snapshot()
	if len(down) != 1 || !down[0].Equal(id) {
		t.Fatalf("machine not down after drain: %+v", down)
	}

	if err := svc.Up(ctx, id); err != nil {
		t.Fatalf("up: %v", err)
	}
	schedule, down = master.Snapshot()
	if len(down) != 0 {
		t.Fatalf("machine still down after up: %+v", down)
	}
	if !schedule.Contains(id) {
		t.Fatal("up must leave the maintenance window scheduled")
	}

	if err := svc.Uncordon(ctx, id); err != nil {
		t.Fatalf("uncordon: %v", err)
	}
	schedule, _ = master.Snapshot()
	if len(schedule.Windows) != 0 {
		t.Fatalf("schedule not empty after uncordon: %+v", schedule.Windows)
	}
}

// stubRepo drives the service with in-memory state and lets tests inject
// between the schedule read and the schedule write.
type stubRepo struct {
	schedule    model.Schedule
	status      model.ClusterStatus
	afterRead   func()
	postedCount int
}

func (s *stubRepo) GetSchedule(ctx context.Context) (*model.Schedule, error) {
	snapshot := s.schedule
	if s.afterRead != nil {
		s.afterRead()
	}
	return &snapshot, nil
}

func (s *stubRepo) PostSchedule(ctx context.Context, schedule *model.Schedule) error {
	s.schedule = *schedule
	s.postedCount++
	return nil
}

func (s *stubRepo) GetStatus(ctx context.Context) (*model.ClusterStatus, error) {
	status := s.status
	return &status, nil
}

func (s *stubRepo) MachineDown(ctx context.Context, id model.MachineID) error { return nil }
func (s *stubRepo) MachineUp(ctx context.Context, id model.MachineID) error   { return nil }

// The schedule update is read-modify-write on a whole document with no
// compare-and-swap, so a concurrent update landing between the read and the
// write is lost. This is an accepted limitation of the API shape; the test
// pins the behavior down rather than papering over it.
func TestCordonReadModifyWriteLosesConcurrentUpdate(t *testing.T) {
	stub := &stubRepo{}
	concurrent := model.NewMachineID("10.0.0.9", "")
	stub.afterRead = func() {
		stub.schedule = stub.schedule.Append(concurrent, time.Now(), time.Hour)
	}

	svc := NewMaintenanceService(stub, false, logger.New())
	if err := svc.Cordon(context.Background(), model.NewMachineID("10.0.0.1", ""), time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}

	if stub.postedCount != 1 {
		t.Fatalf("expected exactly one schedule post, got %d", stub.postedCount)
	}
	if stub.schedule.Contains(concurrent) {
		t.Fatal("concurrent update survived, expected it to be overwritten by the full-document post")
	}
	if !stub.schedule.Contains(model.NewMachineID("10.0.0.1", "")) {
		t.Fatal("cordoned machine missing from posted schedule")
	}
}

func TestUncordonAbsentMachineDoesNotPost(t *testing.T) {
	stub := &stubRepo{}
	svc := NewMaintenanceService(stub, false, logger.New())

	if err := svc.Uncordon(context.Background(), model.NewMachineID("10.0.0.1", "")); err != nil {
		t.Fatalf("uncordon of absent machine must be a no-op, got: %v", err)
	}
	if stub.postedCount != 0 {
		t.Fatalf("uncordon of absent machine posted the schedule %d times", stub.postedCount)
	}
}

func TestStatusReportsScheduleAndMachineStates(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()
	id := model.NewMachineID("10.0.0.1", "")

	if err := svc.Cordon(ctx, id, time.Hour); err != nil {
		t.Fatalf("cordon: %v", err)
	}
	if err := svc.Drain(ctx, id); err != nil {
		t.Fatalf("drain: %v", err)
	}

	view, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !view.Schedule.Contains(id) {
		t.Fatal("status view missing scheduled machine")
	}
	if !view.Status.IsDown(id) {
		t.Fatal("status view should report machine down")
	}
}
