// Package auth resolves caller identity and holds the permission predicates
// consulted by the user endpoints.
package auth

// Identity is the authenticated caller. The zero value is the anonymous caller.
type Identity struct {
	UserID   string
	Username string
}

// Anonymous reports whether no user is attached.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// IsNotAnonymous allows any authenticated caller.
func IsNotAnonymous(caller Identity) bool {
	return !caller.Anonymous()
}

// IsSelf allows an authenticated caller to act on their own user record only.
func IsSelf(caller Identity, userID string) bool {
	return IsNotAnonymous(caller) && caller.UserID == userID
}
