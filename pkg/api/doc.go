// Package api contains the value types shared by the framecoro scheduler and
// its collaborators: suspension values, step sequences, owner references,
// extension predicates and lifecycle observers.
//
// Most users interact with the higher-level framecoro package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom integrations, such as writing an Observer or a
// hand-rolled Steps state machine.
//
// # Suspension Values
//
// A routine suspends by yielding a value from its step sequence:
//
//   - a Wait built with WaitSeconds resumes once enough delta time has
//     accumulated across primary update passes
//   - a Wait built with NewWait(EndOfUpdate) resumes in the secondary
//     update pass of the same frame
//   - a Wait built with NewWait(EndOfFrame) resumes in the post-render pass
//   - any other non-nil value is handed to the scheduler's Predicate
//   - nil resumes on the next primary update pass
//
// # Step Sequences
//
// Steps is a small resumable-computation interface (Advance / Current).
// FromSeq adapts a range-over-func generator, FromFunc adapts a plain
// function and FromValues replays a fixed list of suspension values.
//
// # Owners
//
// A routine may be bound to an Owner. The scheduler re-checks Owner.Alive on
// every pass and evicts the routine once the owner is gone. Lifetime and
// OwnerRef provide a generation-checked implementation.
//
// # Observability
//
// Observer receives start, resume and stop callbacks. LoggingObserver,
// BasicMetrics and CompositeObserver are ready-made implementations.
package api
