// Package session owns the authentication lifecycle: the current user, the
// loading flag, and the write-through persistence of the credential.
//
// A [Manager] starts in the loading state. [Manager.Bootstrap] resolves it
// exactly once, to authenticated or unauthenticated, from whatever credential
// was persisted by a previous run. From there [Manager.Login],
// [Manager.Logout] and [Manager.UpdateProfile] move between states:
//
//	Loading --bootstrap ok--------> Authenticated
//	Loading --no credential / 401-> Unauthenticated
//	Unauthenticated --login ok----> Authenticated
//	Authenticated --logout--------> Unauthenticated
//	Authenticated --updateProfile-> Authenticated
package session
