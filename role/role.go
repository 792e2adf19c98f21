package role

import "strings"

// Role identifies one of the fixed clinic roles. The zero value is [User],
// the safe default for unrecognized input.
type Role uint8

const (
	// User is the default role assigned when the account service reports a
	// role string that matches no known alias. It carries no clinical
	// capabilities.
	User Role = iota
	// Admin manages users and system configuration.
	Admin
	// Doctor is a treating physician.
	Doctor
	// LabTechnician operates the cryobank and laboratory workflows.
	LabTechnician
	// Receptionist handles the front desk and appointment scheduling.
	Receptionist
	// Patient is a clinic patient or donor.
	Patient

	roleCount
)

// All returns every canonical role in declaration order. Tests iterate this
// slice to enforce exhaustiveness of the permission matrix and route table.
func All() []Role {
	return []Role{User, Admin, Doctor, LabTechnician, Receptionist, Patient}
}

// String returns the canonical lowercase name of the role.
func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	case Doctor:
		return "doctor"
	case LabTechnician:
		return "lab_technician"
	case Receptionist:
		return "receptionist"
	case Patient:
		return "patient"
	case User:
		return "user"
	default:
		return "user"
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	return r < roleCount
}

// aliases maps folded role spellings observed from the account service to
// canonical roles. The upstream identity service has shipped several
// spellings for the same role over time ("Lab Technician",
// "LaboratoryTechnician", "lab technician"); folding makes the table immune
// to case and separator drift.
var aliases = map[string]Role{
	"admin":         Admin,
	"administrator": Admin,
	"sysadmin":      Admin,
	"systemadmin":   Admin,
	"superadmin":    Admin,

	"doctor":    Doctor,
	"dr":        Doctor,
	"physician": Doctor,
	"clinician": Doctor,

	"labtechnician":        LabTechnician,
	"laboratorytechnician": LabTechnician,
	"labtech":              LabTechnician,
	"laboratorytech":       LabTechnician,
	"technician":           LabTechnician,
	"embryologist":         LabTechnician,

	"receptionist": Receptionist,
	"reception":    Receptionist,
	"frontdesk":    Receptionist,
	"frontoffice":  Receptionist,

	"patient": Patient,
	"donor":   Patient,
	"client":  Patient,

	"user":   User,
	"member": User,
	"basic":  User,
}

// Normalize maps a raw role string from the account service to its
// canonical [Role]. Matching is case-insensitive and ignores spaces,
// hyphens, underscores, and dots. Unknown or empty input returns [User];
// Normalize never fails and performs no I/O.
func Normalize(raw string) Role {
	folded := fold(raw)
	if folded == "" {
		return User
	}
	if r, ok := aliases[folded]; ok {
		return r
	}
	return User
}

func fold(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range strings.ToLower(raw) {
		switch c {
		case ' ', '\t', '-', '_', '.':
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
