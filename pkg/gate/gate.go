// Package gate decides whether a chat identity may use the system. This is
// distinct from OAuth provider authorization: it answers "is this the one
// permitted user", nothing more.
package gate

// Gate allows exactly one configured identity.
type Gate struct {
	authorized string
}

func New(authorized string) Gate {
	return Gate{authorized: authorized}
}

// Allow reports whether identity is the authorized user. An empty identity
// is always denied, including when no authorized user is configured.
func (g Gate) Allow(identity string) bool {
	return identity != "" && identity == g.authorized
}
