package models

// Scope selects either the personal (one-on-one) ledger or a single group.
type Scope struct {
	// GroupID is empty for the personal scope.
	GroupID string
}

// Personal is the scope of expenses and settlements that belong to no group.
var Personal = Scope{}

// InGroup returns the scope of the given group.
func InGroup(groupID string) Scope {
	return Scope{GroupID: groupID}
}

// IsPersonal reports whether the scope is the personal one.
func (s Scope) IsPersonal() bool {
	return s.GroupID == ""
}

// Matches reports whether a record with the given group ID falls in the scope.
func (s Scope) Matches(groupID string) bool {
	return s.GroupID == groupID
}
