package credentials_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/credentials"
)

type recorder struct {
	events []audit.Event
	mu     sync.Mutex
}

func (r *recorder) Emit(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) byAction(action string) []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type tokenCall struct {
	name     string
	policy   string
	duration int32
}

type fakeTokens struct {
	err   error
	calls []tokenCall
	mu    sync.Mutex
}

func (f *fakeTokens) IssueSessionToken(_ context.Context, name, policyJSON string, durationSeconds int32) (*credentials.TemporaryCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tokenCall{name: name, policy: policyJSON, duration: durationSeconds})
	if f.err != nil {
		return nil, f.err
	}
	return &credentials.TemporaryCredential{
		AccessKeyID:     "ASIATEMP",
		SecretAccessKey: "temp-secret",
		SessionToken:    "token",
		Expiration:      time.Now().Add(time.Duration(durationSeconds) * time.Second),
	}, nil
}

func (f *fakeTokens) last() tokenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type principal struct {
	policies map[string]string
	keys     []credentials.AccessKey
}

// fakeIdentity is an in-memory IdentityService. Error fields, when set,
// are returned by the matching method.
type fakeIdentity struct {
	principals map[string]*principal
	nextKey    int

	getErr    error
	createErr error
	attachErr error
	keyErr    error
	deleteErr error
	listErr   error

	gets    int
	creates int
	attachs int

	mu sync.Mutex
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{principals: map[string]*principal{}}
}

func (f *fakeIdentity) GetPrincipal(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return f.getErr
	}
	if _, ok := f.principals[name]; !ok {
		return credentials.ErrPrincipalNotFound
	}
	return nil
}

func (f *fakeIdentity) CreatePrincipal(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.principals[name]; ok {
		return credentials.ErrPrincipalExists
	}
	f.principals[name] = &principal{policies: map[string]string{}}
	return nil
}

func (f *fakeIdentity) AttachPolicy(_ context.Context, name, policyName, policyJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachs++
	if f.attachErr != nil {
		return f.attachErr
	}
	p, ok := f.principals[name]
	if !ok {
		return credentials.ErrPrincipalNotFound
	}
	p.policies[policyName] = policyJSON
	return nil
}

func (f *fakeIdentity) CreateKey(_ context.Context, name string) (*credentials.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keyErr != nil {
		return nil, f.keyErr
	}
	p, ok := f.principals[name]
	if !ok {
		return nil, credentials.ErrPrincipalNotFound
	}
	if len(p.keys) >= 2 {
		return nil, credentials.ErrKeyLimit
	}
	f.nextKey++
	k := credentials.AccessKey{
		AccessKeyID:     fmt.Sprintf("AKIA%04d", f.nextKey),
		SecretAccessKey: fmt.Sprintf("secret-%d", f.nextKey),
		Status:          credentials.StatusActive,
		CreateDate:      time.Now().UTC(),
	}
	p.keys = append(p.keys, k)
	return &k, nil
}

func (f *fakeIdentity) ListKeys(_ context.Context, name string) ([]credentials.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	p, ok := f.principals[name]
	if !ok {
		return nil, credentials.ErrPrincipalNotFound
	}
	return append([]credentials.AccessKey(nil), p.keys...), nil
}

func (f *fakeIdentity) DeleteKey(_ context.Context, name, keyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	p, ok := f.principals[name]
	if !ok {
		return credentials.ErrPrincipalNotFound
	}
	for i, k := range p.keys {
		if k.AccessKeyID == keyID {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			return nil
		}
	}
	return credentials.ErrKeyNotFound
}

func (f *fakeIdentity) SetKeyStatus(_ context.Context, name, keyID string, status credentials.KeyStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.principals[name]
	if !ok {
		return credentials.ErrPrincipalNotFound
	}
	for i, k := range p.keys {
		if k.AccessKeyID == keyID {
			p.keys[i].Status = status
			return nil
		}
	}
	return credentials.ErrKeyNotFound
}

func (f *fakeIdentity) keyIDs(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	if p, ok := f.principals[name]; ok {
		for _, k := range p.keys {
			ids = append(ids, k.AccessKeyID)
		}
	}
	return ids
}

var (
	_ credentials.TokenService    = (*fakeTokens)(nil)
	_ credentials.IdentityService = (*fakeIdentity)(nil)
)
