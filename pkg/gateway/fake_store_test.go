package gateway_test

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/gateway"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

type storedObject struct {
	modified    time.Time
	contentType string
	body        []byte
}

type upload struct {
	initiated time.Time
	key       string
}

// memStore is an in-memory ObjectStore recording every call.
type memStore struct {
	objects  map[string]storedObject
	uploads  map[string]upload
	versions []gateway.ObjectVersion
	failOn   map[string]error
	calls    []string
	lastList gateway.ListParams
	lastPut  gateway.PutParams
	nextID   int
	mu       sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[string]storedObject),
		uploads: make(map[string]upload),
		failOn:  make(map[string]error),
	}
}

func (m *memStore) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	return m.failOn[op]
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *memStore) seed(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.objects[k] = storedObject{body: []byte(k), modified: time.Now()}
	}
}

func (m *memStore) List(_ context.Context, p gateway.ListParams) (*gateway.ListResult, error) {
	if err := m.record("list"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = p

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, p.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := &gateway.ListResult{}
	seen := map[string]bool{}
	for _, k := range keys {
		if p.Delimiter != "" {
			rest := strings.TrimPrefix(k, p.Prefix)
			if i := strings.Index(rest, p.Delimiter); i >= 0 {
				cp := p.Prefix + rest[:i+1]
				if !seen[cp] {
					seen[cp] = true
					res.CommonPrefixes = append(res.CommonPrefixes, cp)
				}
				continue
			}
		}
		o := m.objects[k]
		res.Objects = append(res.Objects, gateway.Object{
			Key:          k,
			Size:         int64(len(o.body)),
			ETag:         "etag-" + k,
			StorageClass: "STANDARD",
			LastModified: o.modified,
		})
	}
	if p.MaxKeys > 0 && int32(len(res.Objects)) > p.MaxKeys {
		res.Objects = res.Objects[:p.MaxKeys]
		res.IsTruncated = true
		res.NextContinuationToken = "next-token"
	}
	return res, nil
}

func (m *memStore) Put(_ context.Context, p gateway.PutParams) (string, error) {
	if err := m.record("put"); err != nil {
		return "", err
	}
	body, err := io.ReadAll(p.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPut = p
	m.lastPut.Body = nil
	m.objects[p.Key] = storedObject{body: body, contentType: p.ContentType, modified: time.Now()}
	return fmt.Sprintf("etag-%d", len(body)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if err := m.record("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) DeleteBatch(_ context.Context, keys []string) (*gateway.DeleteResult, error) {
	if err := m.record("delete_batch"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &gateway.DeleteResult{}
	for _, k := range keys {
		if strings.HasSuffix(k, ".locked") {
			res.Errors = append(res.Errors, gateway.DeleteError{Key: k, Code: "AccessDenied", Message: "object locked"})
			continue
		}
		delete(m.objects, k)
		res.Deleted = append(res.Deleted, k)
	}
	return res, nil
}

func (m *memStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if err := m.record("presign_get"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://store.example/%s?ttl=%d", key, int64(ttl.Seconds())), nil
}

func (m *memStore) Head(_ context.Context, key string) (*gateway.ObjectMetadata, error) {
	if err := m.record("head"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("memstore: %w", tenancy.ErrNotFound)
	}
	return &gateway.ObjectMetadata{
		ContentType:   o.contentType,
		ContentLength: int64(len(o.body)),
		LastModified:  o.modified,
		ETag:          "etag-" + key,
	}, nil
}

func (m *memStore) ListVersions(_ context.Context, prefix string) ([]gateway.ObjectVersion, error) {
	if err := m.record("list_versions"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gateway.ObjectVersion
	for _, v := range m.versions {
		if strings.HasPrefix(v.Key, prefix) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) CreateMultipart(_ context.Context, key, _ string) (string, error) {
	if err := m.record("create_multipart"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("upload-%d", m.nextID)
	m.uploads[id] = upload{key: key, initiated: time.Now()}
	return id, nil
}

func (m *memStore) PresignUploadPart(_ context.Context, key, uploadID string, part int32, _ time.Duration) (string, error) {
	if err := m.record("presign_part"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://store.example/%s?uploadId=%s&partNumber=%d", key, uploadID, part), nil
}

func (m *memStore) CompleteMultipart(_ context.Context, key, uploadID string, parts []gateway.CompletedPart) (string, error) {
	if err := m.record("complete_multipart"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[uploadID]
	if !ok || u.key != key {
		return "", fmt.Errorf("memstore: no such upload: %w", tenancy.ErrNotFound)
	}
	delete(m.uploads, uploadID)
	m.objects[key] = storedObject{modified: time.Now()}
	return fmt.Sprintf("etag-%d-parts", len(parts)), nil
}

func (m *memStore) AbortMultipart(_ context.Context, key, uploadID string) error {
	if err := m.record("abort_multipart"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[uploadID]
	if !ok || u.key != key {
		return fmt.Errorf("memstore: no such upload: %w", tenancy.ErrNotFound)
	}
	delete(m.uploads, uploadID)
	return nil
}

func (m *memStore) ListMultipart(_ context.Context, prefix string) ([]gateway.MultipartUpload, error) {
	if err := m.record("list_multipart"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gateway.MultipartUpload
	for id, u := range m.uploads {
		if strings.HasPrefix(u.key, prefix) {
			out = append(out, gateway.MultipartUpload{Key: u.key, UploadID: id, Initiated: u.initiated})
		}
	}
	slices.SortFunc(out, func(a, b gateway.MultipartUpload) int { return strings.Compare(a.UploadID, b.UploadID) })
	return out, nil
}

func (m *memStore) age(uploadID string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.uploads[uploadID]
	u.initiated = time.Now().Add(-d)
	m.uploads[uploadID] = u
}

var _ gateway.ObjectStore = (*memStore)(nil)

// silentStore answers nil, nil from every call that normally returns a result.
type silentStore struct {
	*memStore
}

func (silentStore) List(context.Context, gateway.ListParams) (*gateway.ListResult, error) {
	return nil, nil
}

func (silentStore) Head(context.Context, string) (*gateway.ObjectMetadata, error) {
	return nil, nil
}

func (silentStore) DeleteBatch(context.Context, []string) (*gateway.DeleteResult, error) {
	return nil, nil
}
