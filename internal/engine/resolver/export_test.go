package resolver

// Concurrency returns the configured fetch limit.
// This is exported for testing purposes only.
func (r *Resolver) Concurrency() int {
	return r.concurrency
}
