package eventstream

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/maxiofs/sigv4/internal/keys"
)

// SignOptions configures a single SignEvent call.
type SignOptions struct {
	// Timestamp seeds a generated :date header when the input headers
	// carry none. Zero means "now". Ignored if headers already
	// contains a :date header of type timestamp.
	Timestamp time.Time
	Cache     *keys.Cache
	// Metrics, if set, is incremented once per event signed
	// (satisfied by internal/metrics.Metrics.EventsSigned).
	Metrics Counter
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// Result is what SignEvent produces (§4.9 step 5).
type Result struct {
	Timestamp string
	Scope     string
	Signature []byte
	// Params holds the headers the caller must merge into the
	// outgoing event: a generated :date (only if one wasn't already
	// present) and always :chunk-signature.
	Params []Header
}

// SignEvent implements §4.9 sign_event: a chained per-event signature
// using the outer stream's seed (or the previous event's) signature.
// secretKey/region/service identify the signing credentials; headers
// is the caller's event headers (sign_event does not mutate it).
func SignEvent(lastSigHex, secretKey, region, service string, headers []Header, payload []byte, opts SignOptions) (Result, error) {
	timestamp, generatedDate, dateHeader := resolveDate(headers, opts.Timestamp)
	dateStamp := timestamp[:8]

	var signing keys.SigningData
	if opts.Cache != nil {
		signing = opts.Cache.Derive(dateStamp, secretKey, region, service)
	} else {
		signing = keys.Derive(dateStamp, secretKey, region, service)
	}

	digestHeaders := make([]Header, len(headers))
	copy(digestHeaders, headers)
	if generatedDate {
		digestHeaders = append(digestHeaders, dateHeader)
	}
	sort.Slice(digestHeaders, func(i, j int) bool { return digestHeaders[i].Name < digestHeaders[j].Name })

	encoded, err := EncodeHeaders(digestHeaders)
	if err != nil {
		return Result{}, err
	}
	headersDigestHex := sha256Hex(encoded)
	payloadDigestHex := keys.EmptyStringSHA256
	if len(payload) > 0 {
		payloadDigestHex = sha256Hex(payload)
	}

	sig := keys.SignChunk(lastSigHex, headersDigestHex, payloadDigestHex, timestamp, signing, "")
	if opts.Metrics != nil {
		opts.Metrics.Inc()
	}

	params := make([]Header, 0, 2)
	if generatedDate {
		params = append(params, dateHeader)
	}
	params = append(params, Header{Name: ":chunk-signature", Value: BytesValue(sig)})

	return Result{
		Timestamp: timestamp,
		Scope:     signing.Scope,
		Signature: sig,
		Params:    params,
	}, nil
}

// resolveDate finds an existing ":date" timestamp header, or formats
// fallback into a fresh one, reporting whether it had to generate one.
func resolveDate(headers []Header, fallback time.Time) (timestamp string, generated bool, dateHeader Header) {
	for _, h := range headers {
		if h.Name == ":date" && h.Value.Type == TypeTimestamp {
			return keys.FormatTimestamp(h.Value.Timestamp), false, Header{}
		}
	}
	ts := keys.FormatTimestamp(fallback)
	instant, _ := time.Parse(keys.TimeFormat, ts)
	return ts, true, Header{Name: ":date", Value: TimestampValue(instant)}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
