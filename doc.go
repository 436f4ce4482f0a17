// Package ummati is the client state core of the Ummati volunteering
// marketplace: the session, the notification queue, user preferences and
// the filtered listings of events and NGOs, exposed as observable stores.
//
// # Quick Start
//
//	app, err := ummati.New(
//	    ummati.WithBaseURL("https://api.ummati.ma/v1"),
//	    ummati.WithStatePath(filepath.Join(dir, "state.db")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	if err := app.Open(ctx); err != nil {
//	    return err
//	}
//
//	app.Events().OnFilterChange(ummati.Filters{Search: "plage", City: "Agadir"})
//
// # Stores
//
// Every piece of state lives in a store: an immutable snapshot replaced
// wholesale by a pure reducer for each action, with subscribers notified in
// subscription order. Stores are explicit instances owned by the [App];
// there is no global state.
//
//   - Session: the authenticated user, restored from persistence by
//     [App.Open] and changed by [App.Login], [App.Logout] and
//     [App.UpdateProfile]
//   - Notifications: at most 50 messages, newest first
//   - Preferences: language and theme, persisted
//   - Listings: one debounced query controller per [Collection]
//
// # Listings
//
// Filter changes are debounced (300ms by default): only the last change of
// a burst is fetched, and only the response to the most recently issued
// fetch is ever shown. Changing the search, category or city returns to
// page 1. When a fetch fails the previous page stays visible and the error
// is reported as a notification.
//
// # Architecture
//
// The implementation lives in internal packages:
//
//   - internal/store: generic reducer store with subscribers
//   - internal/session, internal/notify, internal/prefs, internal/query:
//     the specialised stores
//   - internal/remote: HTTP client for the marketplace API
//   - internal/persist: bbolt-backed key-value persistence
//   - internal/server: local HTTP and Server-Sent Events binding for a UI
//
// The internal packages are not part of the public API and may change
// without notice.
package ummati
