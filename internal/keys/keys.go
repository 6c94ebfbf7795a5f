// Package keys implements the key derivation and primitive signing
// operations shared by every SigV4 flavor (§4.1 of the signing
// specification). It is grounded on the AWS SDK v4-signer clone in
// forestrie-go-sigv4 (derivekey.go, constants.go): the HMAC chain and
// the one-slot derivation cache are ports of that package's
// DeriveKey/derivedKeyCache, generalized to the four call sites this
// module needs (header signing, query signing, chunk signing, event
// signing).
package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// TimeFormat is the 16-character basic ISO8601 Zulu timestamp
	// format used throughout SigV4.
	TimeFormat = "20060102T150405Z"
	// ShortTimeFormat is the 8-character date-stamp format.
	ShortTimeFormat = "20060102"

	// EmptyStringSHA256 is the hex SHA-256 digest of the empty byte
	// string, reused wherever a zero-length payload/header block
	// needs hashing (chunk framing, no-body requests).
	EmptyStringSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// HeaderAlgorithm is the default algorithm identifier for
	// canonical-request signing (sign_digest).
	HeaderAlgorithm = "AWS4-HMAC-SHA256"
	// ChunkAlgorithm is the default algorithm identifier for chained
	// chunk/event signing (sign_chunk).
	ChunkAlgorithm = "AWS4-HMAC-SHA256-PAYLOAD"

	aws4Request = "aws4_request"
)

// FormatDate returns the 8-character YYYYMMDD date stamp for t in
// UTC. A zero t means "now".
func FormatDate(t time.Time) string {
	return instant(t).Format(ShortTimeFormat)
}

// FormatTimestamp returns the 16-character YYYYMMDDTHHMMSSZ timestamp
// for t in UTC. A zero t means "now".
func FormatTimestamp(t time.Time) string {
	return instant(t).Format(TimeFormat)
}

func instant(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}

// SigningData is the pair AWS calls a "derived signing key": the
// 32-byte HMAC-SHA256 chain output and the scope string it was
// derived under.
type SigningData struct {
	Key   []byte
	Scope string
}

// Derive computes the SigV4 key-derivation chain:
//
//	K0 = "AWS4" || secretKey
//	K1 = HMAC(K0, date8)
//	K2 = HMAC(K1, region)
//	K3 = HMAC(K2, service)
//	K  = HMAC(K3, "aws4_request")
//
// dateStamp is truncated to its first 8 characters so a full 16-char
// timestamp is also accepted.
func Derive(dateStamp, secretKey, region, service string) SigningData {
	if len(dateStamp) > 8 {
		dateStamp = dateStamp[:8]
	}
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte(aws4Request))

	scope := strings.Join([]string{dateStamp, region, service, aws4Request}, "/")
	return SigningData{Key: kSigning, Scope: scope}
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// SignString computes HMAC-SHA256(key, data) — the raw primitive
// AWS calls "sign".
func SignString(key, data []byte) []byte {
	return hmacSHA256(key, data)
}

// SignDigest signs a canonical-request digest for header/query
// signing (§4.1 sign_digest): it HMACs
// "algorithm\ntimestamp\nscope\npayloadDigestHex" with signing.Key.
func SignDigest(payloadDigestHex, timestamp string, signing SigningData, algorithm string) []byte {
	if algorithm == "" {
		algorithm = HeaderAlgorithm
	}
	stringToSign := strings.Join([]string{algorithm, timestamp, signing.Scope, payloadDigestHex}, "\n")
	return SignString(signing.Key, []byte(stringToSign))
}

// SignChunk computes a chained chunk/event signature (§4.1
// sign_chunk): sign_digest over
// "lastSigHex\nheadersDigestHex\npayloadDigestHex".
func SignChunk(lastSigHex, headersDigestHex, payloadDigestHex, timestamp string, signing SigningData, algorithm string) []byte {
	if algorithm == "" {
		algorithm = ChunkAlgorithm
	}
	inner := strings.Join([]string{lastSigHex, headersDigestHex, payloadDigestHex}, "\n")
	return SignDigest(inner, timestamp, signing, algorithm)
}

// Cache is a one-slot derivation cache: it memoizes the most recently
// derived key for a (dateStamp, region, service, secretKey) tuple and
// recomputes on any change. It is semantically equivalent to calling
// Derive directly and is NOT internally synchronized — concurrent
// callers must own one Cache per goroutine or serialize access
// themselves, matching forestrie-go-sigv4's ThreadSafety-gated
// cache selection (its non-thread-safe path is this shape; its
// thread-safe path is Cache wrapped by a caller-supplied mutex, which
// this package deliberately leaves external per §5).
type Cache struct {
	key    cacheKey
	valid  bool
	signed SigningData

	hits   Counter
	misses Counter
}

type cacheKey struct {
	dateStamp string
	region    string
	service   string
	secretKey string
}

// Counter is satisfied by prometheus.Counter; kept as a narrow
// interface here so this package does not import prometheus directly.
type Counter interface {
	Inc()
}

// NewCache constructs an empty one-slot cache. hits/misses may be nil
// (metrics become no-ops) or wired to prometheus counters by the
// caller — see internal/metrics.
func NewCache(hits, misses Counter) *Cache {
	if hits == nil {
		hits = noopCounter{}
	}
	if misses == nil {
		misses = noopCounter{}
	}
	return &Cache{hits: hits, misses: misses}
}

type noopCounter struct{}

func (noopCounter) Inc() {}

// Derive returns the cached SigningData if the key tuple is
// unchanged, else recomputes, caches, and returns the fresh value.
func (c *Cache) Derive(dateStamp, secretKey, region, service string) SigningData {
	if len(dateStamp) > 8 {
		dateStamp = dateStamp[:8]
	}
	key := cacheKey{dateStamp: dateStamp, region: region, service: service, secretKey: secretKey}
	if c.valid && c.key == key {
		c.hits.Inc()
		return c.signed
	}
	c.misses.Inc()
	logrus.WithFields(logrus.Fields{
		"date":    dateStamp,
		"region":  region,
		"service": service,
	}).Debug("sigv4: derivation cache miss, recomputing signing key")
	c.signed = Derive(dateStamp, secretKey, region, service)
	c.key = key
	c.valid = true
	return c.signed
}
