// Package store provides the generic reactive state container used by every
// piece of client state in Ummati.
//
// A [Store] pairs an immutable snapshot with a pure [Reducer]. Dispatching an
// action reduces the current snapshot into the next one, replaces it
// wholesale and notifies subscribers with the new snapshot in subscription
// order. The main components are:
//
//   - [Store]: the container itself, safe for concurrent use
//   - [Reducer]: pure function computing the next snapshot
//   - [Observable]: the read side (State, Subscribe, Watch) handed to
//     presentation bindings
//
// Dispatch is serialised: reductions never interleave and every subscriber
// observes snapshots in dispatch order. Subscriber callbacks run outside the
// store lock, so a subscriber may dispatch again; the nested snapshot is
// delivered once the current notification pass has finished.
//
// Snapshots are shared with every subscriber. State types should be values,
// and slices or maps inside them must be copied on change, never mutated.
package store
