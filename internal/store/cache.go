package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/favlive/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketFollows = []byte("follows")
	bucketStatus  = []byte("status")
)

// followsRecord is the persisted prefix of a user's follows listing
type followsRecord struct {
	Total    int              `json:"total"`
	Channels []domain.Channel `json:"channels"`
	SavedAt  time.Time        `json:"saved_at"`
}

// Cache implements domain.ChannelCache using BoltDB.
type Cache struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewCache opens the cache for apiURL under baseCacheDir. An empty
// baseCacheDir gives a memory-only cache.
func NewCache(baseCacheDir, apiURL string) (*Cache, error) {
	if baseCacheDir == "" {
		return &Cache{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if apiURL != "" {
		dir = filepath.Join(baseCacheDir, hashAPIURL(apiURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "favlive.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketFollows, bucketStatus} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, cache: make(map[string][]byte)}, nil
}

func hashAPIURL(apiURL string) string {
	normalized := strings.TrimRight(strings.ToLower(apiURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Cache) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	c.mu.RLock()
	if data, ok := c.cache[cacheKey]; ok {
		c.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	c.mu.RUnlock()

	if c.db == nil {
		return false
	}

	var data []byte
	c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	c.mu.Lock()
	c.cache[cacheKey] = data
	c.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (c *Cache) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cache[string(bucket)+":"+key] = data
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (c *Cache) delete(bucket []byte, key string) error {
	c.mu.Lock()
	delete(c.cache, string(bucket)+":"+key)
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			return b.Delete([]byte(key))
		}
		return nil
	})
}

func followsKey(criterion string) string {
	return "user:" + strings.ToLower(strings.TrimSpace(criterion))
}

func statusKey(name string) string {
	return strings.ToLower(name)
}

// Page returns the cached slice of criterion's follows. Channels carry
// their last known status and no pending flag.
func (c *Cache) Page(criterion string, offset, limit int) (domain.Page, bool) {
	var rec followsRecord
	if !c.get(bucketFollows, followsKey(criterion), &rec) {
		return domain.Page{}, false
	}
	if offset < 0 || offset >= len(rec.Channels) {
		return domain.Page{}, false
	}

	end := len(rec.Channels)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	channels := make([]domain.Channel, 0, end-offset)
	for _, ch := range rec.Channels[offset:end] {
		ch.UpdatePending = false
		if st, ok := c.Status(ch.Name); ok {
			ch.Status = st
		}
		channels = append(channels, ch)
	}
	return domain.Page{Channels: channels, Total: rec.Total, FromCache: true}, true
}

// SavePage splices page into the cached listing at offset. A page at
// offset 0 starts a fresh listing; a page past the cached end is ignored.
func (c *Cache) SavePage(criterion string, offset int, page domain.Page) error {
	if page.FromCache {
		return nil
	}

	var rec followsRecord
	if offset > 0 {
		if !c.get(bucketFollows, followsKey(criterion), &rec) || offset > len(rec.Channels) {
			return nil
		}
		rec.Channels = rec.Channels[:offset]
	}

	for _, ch := range page.Channels {
		ch.UpdatePending = false
		rec.Channels = append(rec.Channels, ch)
	}
	rec.Total = page.Total
	rec.SavedAt = time.Now()

	return c.set(bucketFollows, followsKey(criterion), rec)
}

func (c *Cache) Status(name string) (domain.Status, bool) {
	var st domain.Status
	ok := c.get(bucketStatus, statusKey(name), &st)
	return st, ok
}

// SaveStatus records a definite status; StatusUnknown is not persisted.
func (c *Cache) SaveStatus(name string, status domain.Status) error {
	if status == domain.StatusUnknown {
		return nil
	}
	return c.set(bucketStatus, statusKey(name), status)
}

func (c *Cache) Invalidate(criterion string) error {
	return c.delete(bucketFollows, followsKey(criterion))
}
