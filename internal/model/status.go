package model

// DrainingMachine is one entry in the master's draining list. The machine ID
// sits under "id"; the deactivation metadata the master also reports is not
// needed here.
type DrainingMachine struct {
	ID MachineID `json:"id"`
}

// ClusterStatus is the master's view of which machines are currently
// draining and which are down.
type ClusterStatus struct {
	DrainingMachines []DrainingMachine `json:"draining_machines,omitempty"`
	DownMachines     []MachineID       `json:"down_machines,omitempty"`
}

// IsDraining reports whether the machine is currently in draining mode.
func (s *ClusterStatus) IsDraining(id MachineID) bool {
	for _, m := range s.DrainingMachines {
		if m.ID.Equal(id) {
			return true
		}
	}
	return false
}

// IsDown reports whether the machine is currently marked down.
func (s *ClusterStatus) IsDown(id MachineID) bool {
	for _, m := range s.DownMachines {
		if m.Equal(id) {
			return true
		}
	}
	return false
}
