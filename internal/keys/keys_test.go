package keys

import (
	"encoding/hex"
	"testing"
	"time"
)

func TestDeriveScopeFormat(t *testing.T) {
	signing := Derive("20190901T084743Z", "secret", "us-east-1", "s3")
	want := "20190901/us-east-1/s3/aws4_request"
	if signing.Scope != want {
		t.Errorf("Scope = %q, want %q", signing.Scope, want)
	}
	if len(signing.Key) != 32 {
		t.Errorf("derived key has length %d, want 32", len(signing.Key))
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive("20190901", "secret", "us-east-1", "s3")
	b := Derive("20190901", "secret", "us-east-1", "s3")
	if hex.EncodeToString(a.Key) != hex.EncodeToString(b.Key) {
		t.Error("Derive is not deterministic for identical inputs")
	}
}

func TestDeriveChangesWithAnyInput(t *testing.T) {
	base := Derive("20190901", "secret", "us-east-1", "s3")
	variants := []SigningData{
		Derive("20190902", "secret", "us-east-1", "s3"),
		Derive("20190901", "other", "us-east-1", "s3"),
		Derive("20190901", "secret", "us-west-2", "s3"),
		Derive("20190901", "secret", "us-east-1", "ec2"),
	}
	for i, v := range variants {
		if hex.EncodeToString(v.Key) == hex.EncodeToString(base.Key) {
			t.Errorf("variant %d produced the same key as base", i)
		}
	}
}

func TestSignDigestDefaultsAlgorithm(t *testing.T) {
	signing := Derive("20190901", "secret", "us-east-1", "s3")
	withDefault := SignDigest("deadbeef", "20190901T084743Z", signing, "")
	explicit := SignDigest("deadbeef", "20190901T084743Z", signing, HeaderAlgorithm)
	if hex.EncodeToString(withDefault) != hex.EncodeToString(explicit) {
		t.Error("empty algorithm did not default to HeaderAlgorithm")
	}
}

func TestSignChunkDefaultsAlgorithm(t *testing.T) {
	signing := Derive("20190901", "secret", "us-east-1", "s3")
	withDefault := SignChunk("seed", EmptyStringSHA256, EmptyStringSHA256, "20190901T084743Z", signing, "")
	explicit := SignChunk("seed", EmptyStringSHA256, EmptyStringSHA256, "20190901T084743Z", signing, ChunkAlgorithm)
	if hex.EncodeToString(withDefault) != hex.EncodeToString(explicit) {
		t.Error("empty algorithm did not default to ChunkAlgorithm")
	}
}

func TestSignChunkChainsOnSeed(t *testing.T) {
	signing := Derive("20190901", "secret", "us-east-1", "s3")
	first := SignChunk("seed-one", EmptyStringSHA256, EmptyStringSHA256, "20190901T084743Z", signing, "")
	second := SignChunk("seed-two", EmptyStringSHA256, EmptyStringSHA256, "20190901T084743Z", signing, "")
	if hex.EncodeToString(first) == hex.EncodeToString(second) {
		t.Error("SignChunk ignored the seed signature")
	}
}

func TestFormatDateAndTimestamp(t *testing.T) {
	fixed := time.Date(2019, 9, 1, 8, 47, 43, 0, time.UTC)
	if got := FormatDate(fixed); got != "20190901" {
		t.Errorf("FormatDate = %q, want 20190901", got)
	}
	if got := FormatTimestamp(fixed); got != "20190901T084743Z" {
		t.Errorf("FormatTimestamp = %q, want 20190901T084743Z", got)
	}
}

func TestFormatTimestampZeroMeansNow(t *testing.T) {
	before := time.Now().UTC()
	got := FormatTimestamp(time.Time{})
	parsed, err := time.Parse(TimeFormat, got)
	if err != nil {
		t.Fatalf("FormatTimestamp produced an unparseable timestamp: %v", err)
	}
	if parsed.Before(before.Add(-time.Minute)) {
		t.Error("FormatTimestamp(zero) did not default to roughly now")
	}
}

func TestCacheMatchesUncachedReference(t *testing.T) {
	cache := NewCache(nil, nil)
	calls := []cacheKey{
		{dateStamp: "20190901", secretKey: "a", region: "us-east-1", service: "s3"},
		{dateStamp: "20190901", secretKey: "a", region: "us-east-1", service: "s3"},
		{dateStamp: "20190902", secretKey: "a", region: "us-east-1", service: "s3"},
		{dateStamp: "20190901", secretKey: "a", region: "us-east-1", service: "s3"},
		{dateStamp: "20190901", secretKey: "b", region: "us-east-1", service: "s3"},
	}
	for i, c := range calls {
		cached := cache.Derive(c.dateStamp, c.secretKey, c.region, c.service)
		ref := Derive(c.dateStamp, c.secretKey, c.region, c.service)
		if hex.EncodeToString(cached.Key) != hex.EncodeToString(ref.Key) || cached.Scope != ref.Scope {
			t.Errorf("call %d: cached result diverged from uncached reference", i)
		}
	}
}

func TestCacheHitsOnRepeatTuple(t *testing.T) {
	hits := &countingCounter{}
	misses := &countingCounter{}
	cache := NewCache(hits, misses)

	cache.Derive("20190901", "secret", "us-east-1", "s3")
	cache.Derive("20190901", "secret", "us-east-1", "s3")
	cache.Derive("20190902", "secret", "us-east-1", "s3")

	if misses.n != 2 {
		t.Errorf("misses = %d, want 2", misses.n)
	}
	if hits.n != 1 {
		t.Errorf("hits = %d, want 1", hits.n)
	}
}

func TestCacheAcceptsFullTimestampAsDateStamp(t *testing.T) {
	cache := NewCache(nil, nil)
	a := cache.Derive("20190901T084743Z", "secret", "us-east-1", "s3")
	b := cache.Derive("20190901", "secret", "us-east-1", "s3")
	if a.Scope != b.Scope {
		t.Errorf("16-char timestamp and 8-char date stamp produced different scopes: %q vs %q", a.Scope, b.Scope)
	}
}

type countingCounter struct{ n int }

func (c *countingCounter) Inc() { c.n++ }
