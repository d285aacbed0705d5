package api

// Predicate classifies suspension values the scheduler does not recognise
// natively. It returns true when the routine must keep waiting and false
// when it may proceed.
//
// A Predicate can be invoked several times per pass and while a routine is
// being started, so it must not have side effects that depend on call count.
type Predicate func(value any) bool

// Condition is a suspension value that waits on a caller-supplied check.
// It is understood by ConditionPredicate.
type Condition struct {
	ready func() bool
}

// WaitUntil returns a Condition that keeps the routine suspended until ready
// reports true.
func WaitUntil(ready func() bool) Condition {
	return Condition{ready: ready}
}

// WaitWhile returns a Condition that keeps the routine suspended while busy
// reports true.
func WaitWhile(busy func() bool) Condition {
	return Condition{ready: func() bool { return !busy() }}
}

// Ready reports whether the condition is satisfied. A Condition without a
// check is always ready.
func (c Condition) Ready() bool {
	return c.ready == nil || c.ready()
}

// ConditionPredicate keeps routines suspended on an unsatisfied Condition
// (value or pointer) and lets every other value proceed.
func ConditionPredicate(value any) bool {
	switch c := value.(type) {
	case Condition:
		return !c.Ready()
	case *Condition:
		return c != nil && !c.Ready()
	default:
		return false
	}
}

// ChainPredicates returns a Predicate that keeps waiting if any of preds
// does. Nil predicates are skipped; with none left the result is nil.
func ChainPredicates(preds ...Predicate) Predicate {
	filtered := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return func(value any) bool {
		for _, p := range filtered {
			if p(value) {
				return true
			}
		}
		return false
	}
}
