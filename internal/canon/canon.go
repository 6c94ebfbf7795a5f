// Package canon implements SigV4 canonicalization (§4.2): URI
// normalization and percent-encoding, query sorting/encoding, header
// trimming/lower-casing/sorting, and body hashing. The header/query
// canonicalization shape is grounded on forestrie-go-sigv4's
// BuildCanonicalHeaders (builders.go); the URI segment-walking
// algorithm and S3's single-encode/no-normalize quirk are grounded on
// the teacher's internal/auth uriEncode plus §4.2 of the spec, which
// the teacher's simpler implementation does not attempt.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// EmptyBodySHA256 is the hex SHA-256 digest of the empty string.
const EmptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

var unreservedSet [256]bool

func init() {
	for _, c := range []byte(unreserved) {
		unreservedSet[c] = true
	}
}

// percentEncode encodes every byte of s that is not in the SigV4
// unreserved set as %HH (uppercase hex).
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedSet[c] {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// URIOptions configures canonical URI construction; the zero value is
// the general SigV4 default (normalize path, encode twice).
type URIOptions struct {
	// DontNormalize skips dot-segment folding (S3 sets this true).
	DontNormalize bool
	// OnlyEncodeOnce skips the second percent-encoding pass (S3 sets
	// this true, since its canonical URI is only encoded once).
	OnlyEncodeOnce bool
}

// CanonicalURI implements §4.2 canonical_uri.
func CanonicalURI(pathname string, opts URIOptions) string {
	if pathname == "" {
		return "/"
	}

	rawSegments := strings.Split(pathname, "/")
	decoded := make([]string, len(rawSegments))
	for i, seg := range rawSegments {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			decoded[i] = unescaped
		} else {
			decoded[i] = seg
		}
	}

	segments := decoded
	trailingSlash := false
	if !opts.DontNormalize {
		segments, trailingSlash = normalizeSegments(decoded)
	}

	encoded := make([]string, len(segments))
	for i, seg := range segments {
		enc := percentEncode(seg)
		if !opts.OnlyEncodeOnce {
			enc = percentEncode(enc)
		}
		encoded[i] = enc
	}

	joined := strings.Join(encoded, "/")
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	if trailingSlash && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	if joined == "" {
		joined = "/"
	}
	return joined
}

// normalizeSegments folds "." and empty segments out and pops on
// "..", tracking whether the resolved path ends in a slash.
func normalizeSegments(segments []string) (out []string, trailingSlash bool) {
	out = make([]string, 0, len(segments))
	lastWasDotLike := false
	for i, seg := range segments {
		isFirst := i == 0
		isLast := i == len(segments)-1
		switch {
		case seg == "" && !isFirst && !isLast:
			lastWasDotLike = true
			continue
		case seg == ".":
			lastWasDotLike = true
			continue
		case seg == "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			lastWasDotLike = true
			continue
		default:
			if isFirst && seg == "" {
				out = append(out, "")
				continue
			}
			if isLast && seg == "" {
				lastWasDotLike = true
				continue
			}
			out = append(out, seg)
			lastWasDotLike = false
		}
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out, lastWasDotLike
}

// QueryParam is a single name/value pair, preserving duplicates.
type QueryParam struct {
	Name  string
	Value string
}

// CanonicalQuery implements §4.2 canonical_query: drop empty names,
// percent-encode, sort by encoded name then encoded value, join with
// "&".
func CanonicalQuery(params []QueryParam) string {
	type encoded struct{ name, value string }
	enc := make([]encoded, 0, len(params))
	for _, p := range params {
		if p.Name == "" {
			continue
		}
		enc = append(enc, encoded{percentEncode(p.Name), percentEncode(p.Value)})
	}
	sort.Slice(enc, func(i, j int) bool {
		if enc[i].name != enc[j].name {
			return enc[i].name < enc[j].name
		}
		return enc[i].value < enc[j].value
	})
	parts := make([]string, len(enc))
	for i, e := range enc {
		parts[i] = e.name + "=" + e.value
	}
	return strings.Join(parts, "&")
}

// QueryParamsFromValues flattens a url.Values into a duplicate-
// preserving []QueryParam slice.
func QueryParamsFromValues(values url.Values) []QueryParam {
	params := make([]QueryParam, 0, len(values))
	for name, vals := range values {
		for _, v := range vals {
			params = append(params, QueryParam{Name: name, Value: v})
		}
	}
	return params
}

// HeaderInput is one signable header, already comma-joined if it was
// originally array-valued.
type HeaderInput struct {
	Name  string
	Value string
}

// CanonicalHeaders implements §4.2 canonical_headers: lower-case
// names, collapse internal whitespace runs, trim, reject duplicate
// lower-cased names, and return the newline-joined canonical block
// plus the ";"-joined signed-header list, both in ascending order.
func CanonicalHeaders(headers []HeaderInput) (block, signedHeaders string, err error) {
	lowerToValue := make(map[string]string, len(headers))
	names := make([]string, 0, len(headers))
	for _, h := range headers {
		lower := strings.ToLower(h.Name)
		if _, dup := lowerToValue[lower]; dup {
			return "", "", fmt.Errorf("duplicate header %q after lower-casing", lower)
		}
		lowerToValue[lower] = collapseWhitespace(h.Value)
		names = append(names, lower)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(lowerToValue[n])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";"), nil
}

func collapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// HashBody implements §4.2 hash_body: hex SHA-256 of raw, or the
// precomputed hash if supplied, or the empty-string digest if body is
// absent.
func HashBody(raw []byte, precomputed string) string {
	if precomputed != "" {
		return precomputed
	}
	if len(raw) == 0 {
		return EmptyBodySHA256
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
