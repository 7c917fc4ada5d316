package ratelimit

// Decision is the outcome of one rate-limit check.
// Remaining is how many calls are left in the current window, never negative.
type Decision struct {
	allowed   bool
	remaining int
}

func NewDecision(allowed bool, remaining int) Decision {
	return Decision{
		allowed:   allowed,
		remaining: remaining,
	}
}

func (d *Decision) Allowed() bool {
	return d.allowed
}

func (d *Decision) Remaining() int {
	return d.remaining
}
