package project

// Assignment roles. Peer assignments carry the project key into the peer
// evaluation; primary and secondary feed the downward evaluation tiers.
const (
	RolePeer      = "peer"
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)
