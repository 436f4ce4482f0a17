// Package remote is the HTTP client for the marketplace REST API: login,
// profile, paginated listings and event registration.
//
// Every failure is reported through the error taxonomy of the domain
// package: a 401 is [domain.ErrUnauthorized], any other non-success status
// or transport failure is a [*domain.NetworkError].
package remote
