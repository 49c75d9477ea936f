package authview

import (
	"context"
	"log"
	"sync"
	"time"
)

// profileFetchTimeout bounds the best-effort profile fetch that follows a
// provider-pushed session event
const profileFetchTimeout = 10 * time.Second

// SessionState is the snapshot delivered to subscribers. Identity is the
// source of truth; Profile is best-effort and may be nil even while someone
// is signed in.
type SessionState struct {
	Identity *Identity
	Profile  *Profile
}

// SessionStore holds the process-wide view of "who is currently
// authenticated" and keeps it synchronized with the provider's session
// lifecycle. All session-state mutation flows through its publish path;
// consumers read via Current and Subscribe only.
//
// Events are stamped with a monotonically increasing sequence id as they
// arrive. Profile fetches for signed-in events run concurrently, so
// publication is last-event-wins: a slow fetch for an older event can never
// overwrite state published by a newer one.
type SessionStore struct {
	provider IdentityProvider
	profiles ProfileStore

	mu       sync.Mutex
	identity *Identity
	profile  *Profile
	seq      uint64 // last assigned event sequence
	applied  uint64 // sequence of the last published state
	subs     map[int]func(SessionState)
	nextSub  int
	stop     Unsubscribe
}

// NewSessionStore creates a session store and subscribes it to the
// provider's session-change event stream. Call Close to detach.
func NewSessionStore(provider IdentityProvider, profiles ProfileStore) *SessionStore {
	s := &SessionStore{
		provider: provider,
		profiles: profiles,
		subs:     make(map[int]func(SessionState)),
	}
	s.stop = provider.OnSessionChange(s.handleEvent)
	return s
}

// Close detaches the store from the provider's event stream
func (s *SessionStore) Close() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// Current returns the cached identity and profile. Either may be nil.
func (s *SessionStore) Current() (*Identity, *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.profile
}

// Subscribe registers a listener invoked on every published state change,
// including those driven by provider push events. The returned disposer
// must be invoked exactly once to stop delivery.
func (s *SessionStore) Subscribe(fn func(SessionState)) Unsubscribe {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh re-queries the provider for the current session. With an identity
// present it fetches the associated profile and publishes both atomically;
// with none it publishes cleared state. A profile-fetch failure does not
// fail the refresh: identity is published with a nil profile instead.
func (s *SessionStore) Refresh(ctx context.Context) error {
	seq := s.nextSeq()
	identity, err := s.provider.CurrentIdentity(ctx)
	if err != nil {
		s.publish(seq, nil, nil)
		return err
	}
	if identity == nil {
		s.publish(seq, nil, nil)
		return nil
	}
	s.publish(seq, identity, s.fetchProfile(ctx, identity.ID))
	return nil
}

func (s *SessionStore) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// handleEvent stamps the event's sequence id synchronously, preserving
// arrival order, then resolves the profile off the callback goroutine.
func (s *SessionStore) handleEvent(ev SessionEvent) {
	seq := s.nextSeq()
	if ev.Session == nil || ev.Session.Identity == nil {
		s.publish(seq, nil, nil)
		return
	}
	identity := ev.Session.Identity
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
		defer cancel()
		s.publish(seq, identity, s.fetchProfile(ctx, identity.ID))
	}()
}

func (s *SessionStore) fetchProfile(ctx context.Context, identityID string) *Profile {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.Get(ctx, identityID)
	if err != nil {
		log.Printf("authview: profile fetch for %s failed: %v", identityID, err)
		return nil
	}
	return profile
}

// publish installs the state for seq unless a newer event already published,
// then notifies subscribers outside the lock.
func (s *SessionStore) publish(seq uint64, identity *Identity, profile *Profile) {
	s.mu.Lock()
	if seq < s.applied {
		s.mu.Unlock()
		return
	}
	s.applied = seq
	s.identity = identity
	s.profile = profile
	listeners := make([]func(SessionState), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	state := SessionState{Identity: identity, Profile: profile}
	for _, fn := range listeners {
		fn(state)
	}
}
