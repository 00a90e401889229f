// Package authz answers whether an actor may perform an action, either by
// holding one of a set of named roles or by holding an action-permission code
// through one of its active roles. Superusers pass every check.
package authz

// Role is the name of a role as stored in the roles table.
type Role string

const (
	RoleAdmin     Role = "System Administrator"
	RoleChief     Role = "Police Chief"
	RoleCaptain   Role = "Captain"
	RoleSergeant  Role = "Sergeant"
	RoleDetective Role = "Detective"
	RoleOfficer   Role = "Police Officer"
	RoleCadet     Role = "Cadet"
	RoleCoroner   Role = "Coroner"
	RoleJudge     Role = "Judge"
	RoleBaseUser  Role = "Base user"
)

// AllRoles lists every role the system knows about, highest rank first.
var AllRoles = []Role{
	RoleAdmin, RoleChief, RoleCaptain, RoleSergeant, RoleDetective,
	RoleOfficer, RoleCadet, RoleCoroner, RoleJudge, RoleBaseUser,
}

// Rank groups used by the workflows.
var (
	// PoliceRanks can see every case and every officer-level queue.
	PoliceRanks = []Role{RoleOfficer, RoleDetective, RoleSergeant, RoleCaptain, RoleChief}
	// CaseCreators may create cases directly.
	CaseCreators = PoliceRanks
	// StationStaff may pay out rewards at a station, including cadets.
	StationStaff = []Role{RoleCadet, RoleOfficer, RoleDetective, RoleSergeant, RoleCaptain, RoleChief}
	// Supervisors review detective reports and manage bail.
	Supervisors = []Role{RoleSergeant}
	// CaseApprovers approve directly created cases.
	CaseApprovers = []Role{RoleOfficer, RoleSergeant, RoleCaptain, RoleChief}
	// CaseResolvers may close, solve and archive cases.
	CaseResolvers = []Role{RoleSergeant, RoleCaptain, RoleChief}
	// TrialSchedulers open trials.
	TrialSchedulers = []Role{RoleCaptain, RoleChief}
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}
