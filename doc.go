// Package framecoro provides a cooperative routine scheduler for programs
// built around a frame loop (games, simulations, UIs, tick-driven servers).
//
// A routine is a resumable step sequence. Each time it is advanced it runs
// up to its next suspension point and yields a value that tells the
// scheduler when to advance it again. Everything runs on the goroutine that
// drives the frame loop: there is no preemption and no locking in the core.
//
// # Core Concepts
//
//  1. Scheduler
//  2. Steps
//  3. Wait
//  4. Owner
//  5. Predicate
//
// # Scheduler
//
// The host calls three entry points once per frame, in order:
//
//   - OnPrimaryUpdate(deltaTime) advances routines waiting on nothing, on a
//     finished timed wait, or on a custom value the predicate releases.
//   - OnSecondaryUpdate() advances routines waiting for the end of the update.
//   - OnPostRender() advances routines waiting for the end of the frame.
//
// Frame(deltaTime) calls all three. Routines are resumed in the order they
// were started. A routine is evicted when its steps are exhausted, when it is
// stopped, or when its owner stops being alive.
//
// # Steps
//
// Any type with Advance and Current methods can be started. The usual way
// is a range-over-func generator wrapped with FromSeq:
//
//	sched.Start(framecoro.FromSeq(func(yield func(any) bool) {
//	    fmt.Println("fade in")
//	    if !yield(framecoro.MustWaitSeconds(1)) {
//	        return
//	    }
//	    fmt.Println("fade out")
//	}), nil)
//
// Script builds the same thing fluently, and Sequence, Repeat and While
// compose existing sequences.
//
// # Wait
//
// Wait values are the built-in suspension instructions: EndOfUpdateWait,
// EndOfFrameWait and WaitSeconds. Yielding nil resumes on the next primary
// update.
//
// # Owner
//
// A routine started with an Owner lives only as long as the owner reports
// Alive. StopAll stops every routine of one owner. Lifetime and OwnerRef are
// a ready-made generation-checked implementation; routines started with a
// nil owner are standalone.
//
// # Predicate
//
// Values that are neither nil nor a Wait are handed to the scheduler's
// predicate, which returns true to keep the routine waiting. WithPredicate
// installs one; ConditionPredicate understands WaitUntil and WaitWhile.
//
// # Diagnostics
//
// Observers receive start, resume and stop callbacks. LoggingObserver logs
// them with log/slog, BasicMetrics counts them, and Statistics records each
// live routine's start-site stack together with an event history, in memory
// or in SQLite (NewSQLiteStatistics).
//
// # Runner
//
// Runner drives a Scheduler from its own ticker goroutine and lets other
// goroutines queue starts, stops and arbitrary calls onto the frame
// goroutine.
package framecoro
