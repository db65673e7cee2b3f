// Package mesosmock is an in-memory stand-in for a Mesos master's
// maintenance API. It backs the package tests and the mock-master command,
// so the CLI can be exercised without a real cluster.
package mesosmock

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clusterops/mesosctl/internal/model"
)

// Master holds one maintenance schedule document and per-machine up/down
// state, the same way a real master does.
type Master struct {
	mu       sync.Mutex
	schedule model.Schedule
	down     []model.MachineID
	logger   *slog.Logger
	now      func() time.Time
}

// NewMaster creates a mock master with an empty schedule and all machines up.
func NewMaster(logger *slog.Logger) *Master {
	return &Master{
		logger: logger,
		now:    time.Now,
	}
}

// Router creates the maintenance API routes
func (m *Master) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/maintenance/schedule", m.GetSchedule)
	r.Post("/maintenance/schedule", m.PostSchedule)
	r.Get("/maintenance/status", m.GetStatus)
	r.Post("/machine/down", m.MachineDown)
	r.Post("/machine/up", m.MachineUp)

	return r
}

// GetSchedule handles GET /maintenance/schedule
func (m *Master) GetSchedule(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	schedule := m.schedule
	m.mu.Unlock()

	m.respondJSON(w, http.StatusOK, schedule)
}

// PostSchedule handles POST /maintenance/schedule. The posted document
// replaces the schedule wholesale.
func (m *Master) PostSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule model.Schedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		m.respondError(w, http.StatusBadRequest, "invalid schedule document: "+err.Error())
		return
	}

	for _, window := range schedule.Windows {
		if len(window.MachineIDs) == 0 {
			m.respondError(w, http.StatusBadRequest, "maintenance window has no machine ids")
			return
		}
	}

	m.mu.Lock()
	m.schedule = schedule
	m.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

// GetStatus handles GET /maintenance/status. Every machine in the schedule
// that is not down counts as draining; down machines are reported
// separately, matching the master's state split.
func (m *Master) GetStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var status model.ClusterStatus
	for _, window := range m.schedule.Windows {
		for _, id := range window.MachineIDs {
			if m.isDown(id) {
				continue
			}
			status.DrainingMachines = append(status.DrainingMachines, model.DrainingMachine{ID: id})
		}
	}
	status.DownMachines = append(status.DownMachines, m.down...)

	m.respondJSON(w, http.StatusOK, status)
}

// MachineDown handles POST /machine/down. Machines outside an active
// maintenance window are rejected, like the real master does.
func (m *Master) MachineDown(w http.ResponseWriter, r *http.Request) {
	ids, ok := m.decodeMachineIDs(w, r)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if !m.inActiveWindow(id) {
			m.respondError(w, http.StatusBadRequest,
				"machine "+id.String()+" is not inside a maintenance window that is currently active")
			return
		}
	}

	for _, id := range ids {
		if !m.isDown(id) {
			m.down = append(m.down, id)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// MachineUp handles POST /machine/up. Bringing a machine up never touches
// the schedule document.
func (m *Master) MachineUp(w http.ResponseWriter, r *http.Request) {
	ids, ok := m.decodeMachineIDs(w, r)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if !m.isDown(id) {
			m.respondError(w, http.StatusBadRequest,
				"machine "+id.String()+" is not down")
			return
		}
	}

	for _, id := range ids {
		remaining := m.down[:0:0]
		for _, d := range m.down {
			if !d.Equal(id) {
				remaining = append(remaining, d)
			}
		}
		m.down = remaining
	}

	w.WriteHeader(http.StatusOK)
}

// Snapshot returns copies of the current schedule and down list for test
// assertions.
func (m *Master) Snapshot() (model.Schedule, []model.MachineID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule := model.Schedule{Windows: append([]model.Window(nil), m.schedule.Windows...)}
	down := append([]model.MachineID(nil), m.down...)
	return schedule, down
}

func (m *Master) decodeMachineIDs(w http.ResponseWriter, r *http.Request) ([]model.MachineID, bool) {
	var ids []model.MachineID
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		m.respondError(w, http.StatusBadRequest, "invalid machine id list: "+err.Error())
		return nil, false
	}
	if len(ids) == 0 {
		m.respondError(w, http.StatusBadRequest, "machine id list is empty")
		return nil, false
	}
	return ids, true
}

// inActiveWindow reports whether the machine sits in a window whose
// unavailability interval covers the current time. Callers hold mu.
func (m *Master) inActiveWindow(id model.MachineID) bool {
	now := m.now().UnixNano()
	for _, window := range m.schedule.Windows {
		start := window.Unavailability.Start.Nanoseconds
		end := start + window.Unavailability.Duration.Nanoseconds
		if now < start || now >= end {
			continue
		}
		for _, mid := range window.MachineIDs {
			if mid.Equal(id) {
				return true
			}
		}
	}
	return false
}

// isDown reports whether the machine is marked down. Callers hold mu.
func (m *Master) isDown(id model.MachineID) bool {
	for _, d := range m.down {
		if d.Equal(id) {
			return true
		}
	}
	return false
}

func (m *Master) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		m.logger.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}

func (m *Master) respondError(w http.ResponseWriter, statusCode int, message string) {
	http.Error(w, message, statusCode)
}
