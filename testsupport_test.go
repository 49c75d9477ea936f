package authview_test

import (
	"context"
	"sync"

	av "github.com/panyam/authview"
)

// fakeProvider is a scriptable IdentityProvider. Behaviors default to
// success; tests override the hook for the call under test. Events are
// pushed manually via emit.
type fakeProvider struct {
	mu        sync.Mutex
	listeners map[int]func(av.SessionEvent)
	nextID    int

	signUp          func(email, password string, metadata map[string]any) (*av.Session, error)
	signIn          func(email, password string) (*av.Session, error)
	signOut         func() error
	currentIdentity func() (*av.Identity, error)
	updatePassword  func(newPassword string) error
	requestReset    func(email, redirectTarget string) error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{listeners: make(map[int]func(av.SessionEvent))}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*av.Session, error) {
	if p.signUp != nil {
		return p.signUp(email, password, metadata)
	}
	return &av.Session{Identity: &av.Identity{ID: "u1", Email: email}}, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*av.Session, error) {
	if p.signIn != nil {
		return p.signIn(email, password)
	}
	return &av.Session{Identity: &av.Identity{ID: "u1", Email: email, EmailConfirmed: true}}, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	if p.signOut != nil {
		return p.signOut()
	}
	return nil
}

func (p *fakeProvider) CurrentIdentity(ctx context.Context) (*av.Identity, error) {
	if p.currentIdentity != nil {
		return p.currentIdentity()
	}
	return nil, nil
}

func (p *fakeProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	if p.updatePassword != nil {
		return p.updatePassword(newPassword)
	}
	return nil
}

func (p *fakeProvider) RequestPasswordReset(ctx context.Context, email, redirectTarget string) error {
	if p.requestReset != nil {
		return p.requestReset(email, redirectTarget)
	}
	return nil
}

func (p *fakeProvider) OnSessionChange(fn func(av.SessionEvent)) av.Unsubscribe {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) emit(ev av.SessionEvent) {
	p.mu.Lock()
	listeners := make([]func(av.SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// fakeProfiles is an in-memory ProfileStore. Gets can be made to block per
// id so tests can control the order in which concurrent fetches complete.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*av.Profile
	getErr   error
	gates    map[string]chan struct{}
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: make(map[string]*av.Profile),
		gates:    make(map[string]chan struct{}),
	}
}

func (s *fakeProfiles) put(p *av.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// gate makes Get(id) block until the returned func is called
func (s *fakeProfiles) gate(id string) func() {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[id] = ch
	s.mu.Unlock()
	return func() { close(ch) }
}

func (s *fakeProfiles) Get(ctx context.Context, id string) (*av.Profile, error) {
	s.mu.Lock()
	ch := s.gates[id]
	s.mu.Unlock()
	if ch != nil {
		<-ch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (s *fakeProfiles) Update(ctx context.Context, id string, fields map[string]any) (*av.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, errNotFound
	}
	av.ApplyProfileFields(p, fields)
	return p, nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "profile not found" }

var errNotFound = notFoundError{}
