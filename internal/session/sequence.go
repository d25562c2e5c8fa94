package session

// sequence issues monotonically increasing request numbers. Callers hold the
// controller's mutex.
//
// Crime refreshes use isLatest: a response is applied only while its number
// is still the latest issued. Route plans use apply: a plan is stored unless
// a newer one has already been stored, so a newer request that fails does
// not discard an older plan still in flight.
type sequence struct {
	issued  uint64
	applied uint64
}

func (s *sequence) next() uint64 {
	s.issued++
	return s.issued
}

func (s *sequence) isLatest(n uint64) bool {
	return n == s.issued
}

func (s *sequence) apply(n uint64) bool {
	if n <= s.applied {
		return false
	}
	s.applied = n
	return true
}
