// Package sku resolves display SKUs from direct values or supplier SKU
// cross-references against previously ingested orders.
package sku

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CrossReference looks up a display SKU by supplier SKU in the order store.
// A miss is reported as ("", nil).
type CrossReference interface {
	FindSKUBySupplierSKU(ctx context.Context, supplierSKU string) (string, error)
}

// Cache memoizes cross-reference lookups, including misses, so repeated
// supplier SKUs within a run cost one query. It is scoped per run: callers
// must Clear it (or allocate a fresh one) whenever order data changes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*string
}

// NewCache returns an empty resolution cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*string)}
}

func (c *Cache) get(key string) (*string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) put(key string, value *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Clear drops all cached mappings.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*string)
}

// Stats reports cache occupancy split into resolved and miss entries.
func (c *Cache) Stats() (size, hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.entries {
		if v != nil {
			hits++
		} else {
			misses++
		}
	}
	return len(c.entries), hits, misses
}

// Resolver resolves display SKUs during normalization.
type Resolver struct {
	xref  CrossReference
	cache *Cache
}

// NewResolver wires a resolver around a cross-reference source and a cache.
func NewResolver(xref CrossReference, cache *Cache) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{xref: xref, cache: cache}
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Resolve returns the display SKU for a row. A non-blank direct SKU wins.
// Otherwise the supplier SKU is resolved through the cache-backed
// cross-reference; when no mapping exists a deterministic placeholder is
// synthesized. The second return value is false when a placeholder was used.
func (r *Resolver) Resolve(ctx context.Context, directSKU, supplierSKU string) (string, bool) {
	if trimmed := strings.TrimSpace(directSKU); trimmed != "" {
		return trimmed, true
	}

	if resolved, ok := r.fromSupplier(ctx, supplierSKU); ok {
		return resolved, true
	}

	placeholder := placeholderFor(supplierSKU)
	log.Printf("[SKU] generated placeholder %q for supplier sku %q", placeholder, supplierSKU)
	return placeholder, false
}

func (r *Resolver) fromSupplier(ctx context.Context, supplierSKU string) (string, bool) {
	supplierSKU = strings.TrimSpace(supplierSKU)
	if supplierSKU == "" {
		return "", false
	}

	if cached, ok := r.cache.get(supplierSKU); ok {
		if cached == nil {
			return "", false
		}
		return *cached, true
	}

	resolved, err := r.xref.FindSKUBySupplierSKU(ctx, supplierSKU)
	if err != nil {
		log.Printf("[SKU] cross-reference lookup failed for %q: %v", supplierSKU, err)
		return "", false
	}
	if resolved == "" {
		// Cache the miss too, so repeated unknown supplier SKUs stay cheap.
		r.cache.put(supplierSKU, nil)
		return "", false
	}

	r.cache.put(supplierSKU, &resolved)
	return resolved, true
}

func placeholderFor(supplierSKU string) string {
	supplierSKU = strings.TrimSpace(supplierSKU)
	if supplierSKU == "" {
		return "PLACEHOLDER_UNKNOWN_" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return "PLACEHOLDER_" + nonAlnum.ReplaceAllString(supplierSKU, "_")
}
