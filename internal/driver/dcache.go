package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"patchc/internal/compiler"
	"patchc/internal/ir"
	"patchc/internal/patch"
	"patchc/internal/version"
)

// Current schema version - increment when CachePayload changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит скомпилированные программы по ключу патча на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is one cached compile. Only successful compiles are stored.
type CachePayload struct {
	Schema   uint16
	Format   uint32
	Key      string
	Program  *ir.Program
	Warnings []CachedWarning
}

// CachedWarning keeps what the renderers need of a warning.
type CachedWarning struct {
	Code    uint16
	Message string
	Block   string
	Port    string
	Edge    string
	Bus     string
}

// OpenDiskCache initializes a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// CacheKey identifies a compile: the patch encoding, the seed, the registry
// fingerprint and the IR format. Any change to one of them misses.
func CacheKey(p *patch.CompilerPatch, cc *compiler.CompilerContext) (string, error) {
	digest, err := patch.Digest(p)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	_, _ = h.Write([]byte(digest))
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[:8], cc.Seed)
	binary.LittleEndian.PutUint32(buf[8:], version.IRFormat)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(cc.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *DiskCache) pathFor(key string) string {
	// Для удобства очистки — подкаталог "programs".
	return filepath.Join(c.dir, "programs", key+".mp")
}

// Put writes a payload; the file is replaced atomically.
func (c *DiskCache) Put(key string, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	payload.Format = version.IRFormat
	payload.Key = key
	enc := msgpack.NewEncoder(f)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. Entries from another schema or IR format, or stored
// under a different key, count as misses.
func (c *DiskCache) Get(key string) (*CachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var out CachePayload
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion || out.Format != version.IRFormat || out.Key != key || out.Program == nil {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
