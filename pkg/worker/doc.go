// Package worker applies scheduler commands that were issued from goroutines
// other than the frame loop.
//
// A Scheduler is single-threaded: Start, Stop, StopAll and the phase entry
// points must all run on the goroutine that drives the frame loop. A Worker
// lets other goroutines enqueue those operations on a task queue; the frame
// goroutine then applies them between frames with ProcessPending.
//
// # Usage
//
//	q := taskqueue.NewInMemoryQueue(256)
//	w := worker.New(sched, q, logger)
//
//	// any goroutine
//	results, _ := w.EnqueueStart(ctx, steps, owner)
//
//	// frame goroutine, once per frame
//	_ = w.ProcessPending()
//	sched.Frame(dt)
//
// Most users get a Worker through the Runner in the framecoro package, which
// owns the ticker goroutine and calls ProcessPending before every frame.
package worker
