package role

// Capability is a single permission bit within a [Row].
type Capability uint8

const (
	// CapViewPatients grants read access to patient lists and charts.
	CapViewPatients Capability = iota
	// CapManagePatients grants create/update access to patient records.
	CapManagePatients
	// CapViewLabSamples grants read access to cryobank sample inventory.
	CapViewLabSamples
	// CapManageLabSamples grants create/update access to sample records.
	CapManageLabSamples
	// CapManageAppointments grants scheduling access.
	CapManageAppointments
	// CapViewReports grants access to clinical and operational reports.
	CapViewReports
	// CapExportRecords grants access to file exports of clinic records.
	CapExportRecords
	// CapViewOwnRecords grants a patient read access to their own chart.
	CapViewOwnRecords
	// CapCreateUsers grants staff account creation.
	CapCreateUsers
	// CapManageSystem grants system-wide configuration access.
	CapManageSystem

	capabilityCount
)

// String returns the snake_case capability name.
func (c Capability) String() string {
	switch c {
	case CapViewPatients:
		return "view_patients"
	case CapManagePatients:
		return "manage_patients"
	case CapViewLabSamples:
		return "view_lab_samples"
	case CapManageLabSamples:
		return "manage_lab_samples"
	case CapManageAppointments:
		return "manage_appointments"
	case CapViewReports:
		return "view_reports"
	case CapExportRecords:
		return "export_records"
	case CapViewOwnRecords:
		return "view_own_records"
	case CapCreateUsers:
		return "create_users"
	case CapManageSystem:
		return "manage_system"
	default:
		return "unknown"
	}
}

// Capabilities returns every defined capability in declaration order.
func Capabilities() []Capability {
	caps := make([]Capability, 0, capabilityCount)
	for c := Capability(0); c < capabilityCount; c++ {
		caps = append(caps, c)
	}
	return caps
}

// Row is an immutable capability set for one role, packed as a bitmask.
type Row struct {
	bits uint16
}

// Has reports whether the row grants the capability.
func (r Row) Has(c Capability) bool {
	if c >= capabilityCount {
		return false
	}
	return r.bits&(1<<c) != 0
}

// Capabilities lists the granted capabilities in declaration order.
func (r Row) Capabilities() []Capability {
	var caps []Capability
	for c := Capability(0); c < capabilityCount; c++ {
		if r.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// Empty reports whether the row grants nothing.
func (r Row) Empty() bool {
	return r.bits == 0
}

func rowOf(caps ...Capability) Row {
	var r Row
	for _, c := range caps {
		r.bits |= 1 << c
	}
	return r
}

// PermissionsFor returns the capability row for a canonical role. The
// lookup is total: the switch covers every member of the closed role set,
// and TestPermissionMatrixTotal walks [All] to keep it that way.
func PermissionsFor(r Role) Row {
	switch r {
	case Admin:
		return rowOf(
			CapViewPatients, CapManagePatients,
			CapViewLabSamples, CapManageLabSamples,
			CapManageAppointments, CapViewReports, CapExportRecords,
			CapCreateUsers, CapManageSystem,
		)
	case Doctor:
		return rowOf(
			CapViewPatients, CapManagePatients,
			CapViewLabSamples,
			CapManageAppointments, CapViewReports, CapExportRecords,
		)
	case LabTechnician:
		return rowOf(
			CapViewPatients,
			CapViewLabSamples, CapManageLabSamples,
			CapViewReports,
		)
	case Receptionist:
		return rowOf(
			CapViewPatients,
			CapManageAppointments,
		)
	case Patient:
		return rowOf(CapViewOwnRecords)
	case User:
		return Row{}
	default:
		// Unreachable for canonical roles; an out-of-range value behaves
		// like the default role.
		return Row{}
	}
}
