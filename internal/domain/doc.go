// Package domain holds the data model shared by the Ummati client core:
// users and credentials, listing entities (events and NGOs), filter state,
// paginated results, and the error taxonomy every store understands.
//
// The package has no dependencies on the stores or the transport so that
// session, query and notify can all speak the same types without cycles.
package domain
