package services

import "bikeshop/internal/repos"

// Actor identifies who is calling a cart or order operation: an authenticated
// user, a guest session, or (during login) both.
type Actor struct {
	UserID     int64
	SessionKey string
}

func (a Actor) Authenticated() bool { return a.UserID > 0 }

func (a Actor) orderScope() repos.OrderScope {
	if a.Authenticated() {
		return repos.OrderScope{UserID: a.UserID}
	}
	return repos.OrderScope{SessionKey: a.SessionKey}
}
