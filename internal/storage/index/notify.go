package index

import "clipcat/internal/storage"

// Subscribe registers fn to run after every successful persist. fn runs on
// the goroutine that made the change, after the store lane is released.
func (s *Store) Subscribe(fn func()) storage.Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextSub++
	s.subs[s.nextSub] = fn
	return s.nextSub
}

// Unsubscribe removes a registration. Unknown subscriptions are ignored.
func (s *Store) Unsubscribe(sub storage.Subscription) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	delete(s.subs, sub)
}

func (s *Store) notify() {
	s.subsMu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
