package sku

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubXref struct {
	mapping map[string]string
	calls   int
	err     error
}

func (s *stubXref) FindSKUBySupplierSKU(_ context.Context, supplierSKU string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.mapping[supplierSKU], nil
}

func TestResolveDirectSKUWins(t *testing.T) {
	xref := &stubXref{mapping: map[string]string{"SUP-1": "SKU-A"}}
	resolver := NewResolver(xref, NewCache())

	got, resolved := resolver.Resolve(context.Background(), "  SKU-DIRECT  ", "SUP-1")
	if got != "SKU-DIRECT" || !resolved {
		t.Fatalf("Resolve = (%q, %v), want (SKU-DIRECT, true)", got, resolved)
	}
	if xref.calls != 0 {
		t.Fatalf("cross-reference should not be queried when a direct sku exists")
	}
}

func TestResolveSupplierCrossReference(t *testing.T) {
	xref := &stubXref{mapping: map[string]string{"SUP-1": "SKU-A"}}
	resolver := NewResolver(xref, NewCache())

	got, resolved := resolver.Resolve(context.Background(), "", "SUP-1")
	if got != "SKU-A" || !resolved {
		t.Fatalf("Resolve = (%q, %v), want (SKU-A, true)", got, resolved)
	}
}

func TestResolveCachesHitsAndMisses(t *testing.T) {
	xref := &stubXref{mapping: map[string]string{"SUP-1": "SKU-A"}}
	cache := NewCache()
	resolver := NewResolver(xref, cache)

	for i := 0; i < 3; i++ {
		resolver.Resolve(context.Background(), "", "SUP-1")
		resolver.Resolve(context.Background(), "", "SUP-MISSING")
	}

	if xref.calls != 2 {
		t.Fatalf("expected 1 lookup per distinct supplier sku, got %d calls", xref.calls)
	}
	size, hits, misses := cache.Stats()
	if size != 2 || hits != 1 || misses != 1 {
		t.Fatalf("cache stats = (%d, %d, %d), want (2, 1, 1)", size, hits, misses)
	}
}

func TestResolvePlaceholderForUnknownSupplier(t *testing.T) {
	resolver := NewResolver(&stubXref{}, NewCache())

	got, resolved := resolver.Resolve(context.Background(), "", "sup/sku 42")
	if resolved {
		t.Fatalf("placeholder sku must be flagged unresolved")
	}
	if got != "PLACEHOLDER_sup_sku_42" {
		t.Fatalf("placeholder = %q, want PLACEHOLDER_sup_sku_42", got)
	}
}

func TestResolvePlaceholderForBlankSupplier(t *testing.T) {
	resolver := NewResolver(&stubXref{}, NewCache())

	got, resolved := resolver.Resolve(context.Background(), "", "")
	if resolved {
		t.Fatalf("placeholder sku must be flagged unresolved")
	}
	if !strings.HasPrefix(got, "PLACEHOLDER_UNKNOWN_") {
		t.Fatalf("placeholder = %q, want PLACEHOLDER_UNKNOWN_ prefix", got)
	}
}

func TestResolveLookupErrorFallsBackToPlaceholder(t *testing.T) {
	xref := &stubXref{err: errors.New("connection refused")}
	resolver := NewResolver(xref, NewCache())

	got, resolved := resolver.Resolve(context.Background(), "", "SUP-1")
	if resolved || got != "PLACEHOLDER_SUP_1" {
		t.Fatalf("Resolve = (%q, %v), want (PLACEHOLDER_SUP_1, false)", got, resolved)
	}
}

func TestCacheClear(t *testing.T) {
	xref := &stubXref{mapping: map[string]string{"SUP-1": "SKU-A"}}
	cache := NewCache()
	resolver := NewResolver(xref, cache)

	resolver.Resolve(context.Background(), "", "SUP-1")
	cache.Clear()
	resolver.Resolve(context.Background(), "", "SUP-1")

	if xref.calls != 2 {
		t.Fatalf("expected lookup to repeat after Clear, got %d calls", xref.calls)
	}
}
