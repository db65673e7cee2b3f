package model

// MachineID identifies a machine in the Mesos cluster.
// Mesos matches machines on both fields, so the hostname is assumed to be
// the node's IP address unless the operator says otherwise.
type MachineID struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
}

// NewMachineID builds a MachineID for an IP, defaulting the hostname to the
// IP when none is given.
func NewMachineID(ip, hostname string) MachineID {
	if hostname == "" {
		hostname = ip
	}
	return MachineID{IP: ip, Hostname: hostname}
}

// Equal reports whether two machine IDs refer to the same machine.
// Both fields must match, mirroring how the master compares IDs.
func (m MachineID) Equal(other MachineID) bool {
	return m.IP == other.IP && m.Hostname == other.Hostname
}

// String returns the operator-facing form of the machine ID.
func (m MachineID) String() string {
	if m.Hostname == m.IP {
		return m.IP
	}
	return m.Hostname + " (" + m.IP + ")"
}
