package collection

import "time"

// TimeSet tracks keys with the time they were added.
type TimeSet[K comparable] struct {
	items *SyncMap[K, time.Time]
}

func (s *TimeSet[K]) Add(k K) {
	s.items.Put(k, time.Now())
}

// Remove reports whether k was present.
func (s *TimeSet[K]) Remove(k K) bool {
	_, ok := s.items.Take(k)
	return ok
}

func (s *TimeSet[K]) Has(k K) bool {
	_, ok := s.items.Get(k)
	return ok
}

func (s *TimeSet[K]) Len() int {
	return s.items.Len()
}

// Oldest returns the age of the longest outstanding key.
func (s *TimeSet[K]) Oldest() (time.Duration, bool) {
	var oldest time.Time
	found := false
	s.items.Range(func(_ K, added time.Time) bool {
		if !found || added.Before(oldest) {
			oldest = added
			found = true
		}
		return true
	})
	if !found {
		return 0, false
	}
	return time.Since(oldest), true
}

func (s *TimeSet[K]) Clear() {
	s.items.Clear()
}

func NewTimeSet[K comparable]() *TimeSet[K] {
	return &TimeSet[K]{items: NewSyncMap[K, time.Time]()}
}
