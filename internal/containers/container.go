// Package containers assembles lazily evaluated views of players, servers
// and the network. Values are produced by suppliers on first access, so a
// container only queries the database for the keys a caller reads.
package containers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrUnsupportedKey is returned by GetUnsafe for keys without a supplier.
var ErrUnsupportedKey = errors.New("unsupported key")

// Key identifies a value of type T inside a container.
type Key[T any] struct {
	name string
}

// NewKey returns a key with the given name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name.
func (k Key[T]) Name() string { return k.name }

func (k Key[T]) String() string { return k.name }

// Named is any key regardless of its value type.
type Named interface {
	Name() string
}

// Supplier produces a value on demand.
type Supplier[T any] func() (T, error)

// CachingSupplier memoizes a supplier. A zero TTL keeps the value for the
// lifetime of the supplier. Errors are not cached.
type CachingSupplier[T any] struct {
	mu       sync.Mutex
	original Supplier[T]
	ttl      time.Duration
	now      func() time.Time

	value    T
	cachedAt time.Time
	cached   bool
}

// NewCachingSupplier wraps original.
func NewCachingSupplier[T any](original Supplier[T], ttl time.Duration) *CachingSupplier[T] {
	return &CachingSupplier[T]{original: original, ttl: ttl, now: time.Now}
}

// Get returns the cached value, calling the original supplier when nothing
// is cached or the value expired.
func (c *CachingSupplier[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached && (c.ttl <= 0 || c.now().Sub(c.cachedAt) < c.ttl) {
		return c.value, nil
	}

	value, err := c.original()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.cachedAt, c.cached = value, c.now(), true

	return value, nil
}

// Container maps keys to suppliers. It is safe for concurrent use; a
// supplier may read other keys of the same container.
type Container struct {
	mu        sync.RWMutex
	suppliers map[string]func() (any, error)
	ttl       time.Duration
}

// New returns an empty container whose caching suppliers never expire.
func New() *Container {
	return NewWithTTL(0)
}

// NewWithTTL returns an empty container whose caching suppliers expire after ttl.
func NewWithTTL(ttl time.Duration) *Container {
	return &Container{suppliers: make(map[string]func() (any, error)), ttl: ttl}
}

// Supports reports whether a supplier is registered for key. It never
// evaluates the supplier.
func (c *Container) Supports(key Named) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.suppliers[key.Name()]
	return ok
}

// Keys lists the registered key names in order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.suppliers))
	for name := range c.suppliers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Clear removes every supplier.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.suppliers)
}

func (c *Container) set(name string, fn func() (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.suppliers[name] = fn
}

func (c *Container) supplier(name string) (func() (any, error), bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.suppliers[name]
	return fn, ok
}

// Put stores a plain value under key.
func Put[T any](c *Container, key Key[T], value T) {
	c.set(key.name, func() (any, error) { return value, nil })
}

// PutSupplier registers a supplier evaluated on every access.
func PutSupplier[T any](c *Container, key Key[T], supplier Supplier[T]) {
	if supplier == nil {
		return
	}
	c.set(key.name, func() (any, error) { return supplier() })
}

// PutCaching registers a supplier evaluated on first access and then cached
// for the container's TTL.
func PutCaching[T any](c *Container, key Key[T], supplier Supplier[T]) {
	if supplier == nil {
		return
	}
	cs := NewCachingSupplier(supplier, c.ttl)
	c.set(key.name, func() (any, error) { return cs.Get() })
}

// GetValue evaluates the supplier of key. ok is false when the key has no
// supplier or the stored value is not a T; err is the supplier's failure.
func GetValue[T any](c *Container, key Key[T]) (value T, ok bool, err error) {
	fn, found := c.supplier(key.name)
	if !found {
		return value, false, nil
	}

	raw, err := fn()
	if err != nil {
		return value, false, err
	}
	value, ok = raw.(T)

	return value, ok, nil
}

// GetUnsafe evaluates the supplier of key and fails with ErrUnsupportedKey
// when none is registered.
func GetUnsafe[T any](c *Container, key Key[T]) (T, error) {
	value, ok, err := GetValue(c, key)
	if err != nil {
		return value, err
	}
	if !ok {
		if c.Supports(key) {
			return value, fmt.Errorf("%w: %s holds a different type", ErrUnsupportedKey, key.name)
		}
		return value, fmt.Errorf("%w: %s", ErrUnsupportedKey, key.name)
	}

	return value, nil
}
