package framecoro

import "github.com/petrijr/framecoro/pkg/api"

// Step combinators. These compose existing step sequences into one routine
// body; the scheduler sees a single Steps value.

// Sequence runs each sequence to exhaustion in order. Nil entries are
// skipped.
func Sequence(parts ...Steps) Steps {
	filtered := make([]Steps, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	i := 0
	return &composite{
		next: func() Steps {
			if i >= len(filtered) {
				return nil
			}
			s := filtered[i]
			i++
			return s
		},
		rest: func() []Steps {
			return filtered[i:]
		},
	}
}

// Repeat runs n fresh sequences built by factory, one after another.
// n <= 0 yields nothing.
func Repeat(n int, factory func() Steps) Steps {
	if factory == nil {
		panic("framecoro: Repeat factory must not be nil")
	}
	done := 0
	return &composite{
		next: func() Steps {
			if done >= n {
				return nil
			}
			done++
			return factory()
		},
	}
}

// While runs fresh sequences built by factory for as long as cond reports
// true. cond is checked before each iteration. Sequences that end without
// yielding do not give the frame loop back, so cond must eventually turn
// false if the factory can return them.
func While(cond func() bool, factory func() Steps) Steps {
	if cond == nil || factory == nil {
		panic("framecoro: While requires a condition and a factory")
	}
	return &composite{
		next: func() Steps {
			if !cond() {
				return nil
			}
			return factory()
		},
	}
}

// composite chains child sequences produced by next until it returns nil.
type composite struct {
	next func() Steps
	// rest lists children that were built but never started. Optional.
	rest func() []Steps

	cur     Steps
	current any
	done    bool
}

func (c *composite) Advance() bool {
	c.current = nil
	for !c.done {
		if c.cur == nil {
			c.cur = c.next()
			if c.cur == nil {
				c.done = true
				return false
			}
		}
		if c.cur.Advance() {
			c.current = c.cur.Current()
			return true
		}
		c.cur = nil
	}
	return false
}

func (c *composite) Current() any { return c.current }

// Release frees the running child and any children never started.
func (c *composite) Release() {
	if c.done {
		return
	}
	c.done = true
	c.current = nil
	if r, ok := c.cur.(api.Releaser); ok {
		r.Release()
	}
	c.cur = nil
	if c.rest == nil {
		return
	}
	for _, s := range c.rest() {
		if r, ok := s.(api.Releaser); ok {
			r.Release()
		}
	}
}
