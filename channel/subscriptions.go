package channel

import (
	v1 "goleviton/wire/v1"
)

// SubscriptionKey identifies one (model kind, model id) pair. Equality is
// structural, so keys are usable as map keys directly.
type SubscriptionKey struct {
	Kind string
	ID   v1.ModelID
}

// SubscriptionSet tracks the application's intended subscription state.
//
// Membership is decoupled from connection state: it survives disconnects and
// is cleared only by Reset. Enumeration order is insertion order so that
// post-reconnect replay is deterministic.
//
// Not safe for concurrent use; the channel mutex serializes access.
type SubscriptionSet struct {
	present map[SubscriptionKey]struct{}
	order   []SubscriptionKey
}

// NewSubscriptionSet constructs an empty set.
func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{present: make(map[SubscriptionKey]struct{})}
}

// Add inserts key if absent and reports whether it was newly added.
func (s *SubscriptionSet) Add(key SubscriptionKey) bool {
	if _, ok := s.present[key]; ok {
		return false
	}
	s.present[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Remove deletes key if present and reports whether it was removed.
func (s *SubscriptionSet) Remove(key SubscriptionKey) bool {
	if _, ok := s.present[key]; !ok {
		return false
	}
	delete(s.present, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership.
func (s *SubscriptionSet) Contains(key SubscriptionKey) bool {
	_, ok := s.present[key]
	return ok
}

// All returns a snapshot in insertion order.
func (s *SubscriptionSet) All() []SubscriptionKey {
	out := make([]SubscriptionKey, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of subscriptions.
func (s *SubscriptionSet) Len() int { return len(s.order) }

// Clear empties the set.
func (s *SubscriptionSet) Clear() {
	s.present = make(map[SubscriptionKey]struct{})
	s.order = nil
}
