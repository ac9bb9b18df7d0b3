package artifact

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	artifactrepo "sitegen/internal/gateway/repository/artifact"
)

type (
	Store  = artifactrepo.Store
	Object = artifactrepo.Object
)

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	// BlobMaxBytes caps the summed content size held in the blob cache.
	// Zero disables the byte budget.
	BlobMaxBytes int

	ListTTL        time.Duration
	ListMaxEntries int

	URLTTL        time.Duration
	URLMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 1024,
		BlobMaxBytes:   64 * 1024 * 1024, // 64MiB
		ListTTL:        30 * time.Second,
		ListMaxEntries: 512,
		URLTTL:         5 * time.Minute,
		URLMaxEntries:  1024,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	URLHits        uint64
	URLMisses      uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	urlHits        atomic.Uint64
	urlMisses      atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		URLHits:        m.urlHits.Load(),
		URLMisses:      m.urlMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through, write-through cache in front of an artifact
// backend. Downloads of a finished turn hit the same few files repeatedly.
type CachedStore struct {
	origin Store

	blobMu    sync.Mutex
	blobBytes atomic.Int64
	maxBytes  int64
	blobCache *expirable.LRU[string, Object]
	listCache *expirable.LRU[string, []string]
	urlCache  *expirable.LRU[string, string]
	metrics   Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.BlobMaxBytes < 0 {
		cfg.BlobMaxBytes = def.BlobMaxBytes
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = def.URLTTL
	}
	if cfg.URLMaxEntries <= 0 {
		cfg.URLMaxEntries = def.URLMaxEntries
	}

	s := &CachedStore{
		origin:    origin,
		maxBytes:  int64(cfg.BlobMaxBytes),
		listCache: expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
		urlCache:  expirable.NewLRU[string, string](cfg.URLMaxEntries, nil, cfg.URLTTL),
	}
	s.blobCache = expirable.NewLRU[string, Object](cfg.BlobMaxEntries, func(_ string, obj Object) {
		s.blobBytes.Add(-int64(len(obj.Content)))
	}, cfg.BlobTTL)
	return s
}

func (s *CachedStore) storeBlob(key string, obj Object) {
	s.blobMu.Lock()
	defer s.blobMu.Unlock()
	s.blobCache.Remove(key)
	if s.maxBytes > 0 && int64(len(obj.Content)) > s.maxBytes {
		return
	}
	s.blobCache.Add(key, obj)
	s.blobBytes.Add(int64(len(obj.Content)))
	for s.maxBytes > 0 && s.blobBytes.Load() > s.maxBytes {
		if _, _, ok := s.blobCache.RemoveOldest(); !ok {
			return
		}
	}
}

func (s *CachedStore) Put(ctx context.Context, runID string, obj Object) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, runID, obj); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}

	key := artifactKey(runID, obj.Path)
	s.storeBlob(key, cloneObject(obj))
	s.listCache.Remove(strings.TrimSpace(runID))
	s.urlCache.Remove(key)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, path string) (Object, error) {
	key := artifactKey(runID, path)
	if obj, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return cloneObject(obj), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	obj, err := s.origin.Get(ctx, runID, path)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return Object{}, err
	}
	s.storeBlob(key, cloneObject(obj))
	return obj, nil
}

func (s *CachedStore) GetURL(ctx context.Context, runID, path string) (string, error) {
	key := artifactKey(runID, path)
	if cached, ok := s.urlCache.Get(key); ok {
		s.metrics.urlHits.Add(1)
		return cached, nil
	}
	s.metrics.urlMisses.Add(1)
	s.metrics.originReads.Add(1)

	url, err := s.origin.GetURL(ctx, runID, path)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return "", err
	}
	if strings.TrimSpace(url) != "" {
		s.urlCache.Add(key, url)
	}
	return url, nil
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if list, ok := s.listCache.Get(runID); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, runID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.listCache.Add(runID, append([]string(nil), list...))
	return list, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func artifactKey(runID, path string) string {
	return strings.TrimSpace(runID) + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}

func cloneObject(obj Object) Object {
	obj.Content = append([]byte(nil), obj.Content...)
	return obj
}
