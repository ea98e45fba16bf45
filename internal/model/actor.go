package model

// Role is the discriminator tag on an identity record.  Identities are
// single-table polymorphic: one record, one role tag, and the tag selects
// which capability applies.  Dispatch is always on the tag, never on a type
// hierarchy.  Role values match the JWT "role" claim.
type Role string

const (
	// RoleRequester submits requests on its own behalf; its requests enter
	// the approval queue directly.
	RoleRequester Role = "REQUESTER"
	// RoleRequesterWithDelegate submits through a designated verifier; its
	// requests start at PENDING_VERIFICATION.
	RoleRequesterWithDelegate Role = "REQUESTER_WITH_DELEGATE"
	// RoleVerifier vouches for delegated requests before they reach an
	// approver.
	RoleVerifier Role = "VERIFIER"
	// RoleApprover decides approval-stage requests and performs the
	// authoritative ledger write.
	RoleApprover Role = "APPROVER"
	// RoleArbitrator resolves conflict cases.
	RoleArbitrator Role = "ARBITRATOR"
	// RoleSystem authors decisions produced by the engine itself: timetable
	// materialization and conflict-case side effects.
	RoleSystem Role = "SYSTEM"
)

// Valid reports whether r is a known role tag.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleRequesterWithDelegate, RoleVerifier, RoleApprover, RoleArbitrator, RoleSystem:
		return true
	}
	return false
}

// Actor is the caller identity attached to every workflow-mutating call.
// The engine never looks identities up: the HTTP layer extracts id and role
// from the verified token and passes the snapshot down.  The role carried
// here is the role at the time of the call; requests additionally freeze the
// submitter's role at submission so later role changes cannot alter an
// in-flight workflow.
type Actor struct {
	ID   uint64 // users.id (subject claim)
	Name string // display name, informational only
	Role Role   // role claim at call time
}

// SystemActor is the identity stamped on engine-authored decision records.
var SystemActor = Actor{ID: 0, Name: "system", Role: RoleSystem}
