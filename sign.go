// Package sigv4 implements the AWS Signature Version 4 family of
// request signers: header-based HTTP signing, query-based (presigned
// URL) signing, S3 chunked-upload signing (see the chunked
// sub-package), and event-stream signing (see the eventstream
// sub-package).
package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxiofs/sigv4/internal/canon"
	"github.com/maxiofs/sigv4/internal/endpoint"
	"github.com/maxiofs/sigv4/internal/keys"
)

// UnsignedPayload is the sentinel body hash used wherever the true
// payload hash is intentionally not computed (S3 unsigned-payload
// mode, and always in query-mode presigning).
const UnsignedPayload = "UNSIGNED-PAYLOAD"

// DefaultPresignExpiry is the X-Amz-Expires value inserted when the
// caller omits one: 604800 seconds, 7 days.
const DefaultPresignExpiry = 604800

// Log is the package-level logger. It defaults to logrus's standard
// logger; embedding applications may replace it wholesale. Signing
// keys and secret keys are never logged, only access keys and scope.
var Log logrus.FieldLogger = logrus.StandardLogger()

// CanonicalOptions controls the URI-canonicalization quirks that
// differ between the generic signer and the S3 signer (§4.2, §4.5).
type CanonicalOptions struct {
	DontNormalize  bool
	OnlyEncodeOnce bool
}

// SignOptions configures a single sign_request call (§4.4).
type SignOptions struct {
	// Set mutates Request in place with the computed authentication
	// parameters. When false (the default), SignRequest is pure: it
	// returns the parameters without touching Request.
	Set bool
	// Query selects query-based (presigned URL) signing instead of
	// header-based signing.
	Query bool
	// SetContentHash, in header mode, emits an x-amz-content-sha256
	// header carrying the body hash used for signing.
	SetContentHash bool
	// Timestamp overrides the clock; zero means "now". Ignored if
	// Request already carries an X-Amz-Date (header or query).
	Timestamp time.Time
	// Cache, if non-nil, is used for key derivation instead of a
	// fresh derive() call.
	Cache *keys.Cache
	// Canonical controls URI normalization/encoding quirks.
	Canonical CanonicalOptions
	// ExpiresSeconds is the query-mode X-Amz-Expires value. Zero means
	// "use whatever is already in the query, or DefaultPresignExpiry".
	ExpiresSeconds int
	// AllowSignedQueryPayload, when true, uses the real body hash in
	// query mode instead of the UnsignedPayload sentinel. The base
	// signer leaves this false; the S3 signer sets it when the caller
	// explicitly asked for a signed payload (SignedRequest.
	// ForceSignedPayload) even while presigning.
	AllowSignedQueryPayload bool
}

// SignResult carries the parameters produced by SignRequest, whether
// or not the request was mutated.
type SignResult struct {
	Timestamp     string
	Scope         string
	Signature     string
	Authorization string
	// Params holds every key/value this call produced: for header
	// mode, "x-amz-date" (if generated), "x-amz-content-sha256" (if
	// SetContentHash) and "authorization"; for query
	// mode, every X-Amz-* parameter inserted, including the trailing
	// X-Amz-Signature.
	Params map[string]string
}

// SignRequest is the C4 entry point. It never mutates req unless
// opts.Set is true.
func SignRequest(cred Credentials, req *SignedRequest, opts SignOptions) (SignResult, error) {
	resolved, err := req.URL.Resolve()
	if err != nil {
		return SignResult{}, err
	}

	host := resolved.Host
	switch {
	case host == "":
		if cred.Service == "" {
			return SignResult{}, newErr(KindMissingConfig, "SignRequest", ErrMissingCredential)
		}
		region := cred.Region
		if region == "" {
			region = endpoint.DefaultRegion
		}
		cred.Region = region
		host = endpoint.FormatHost(cred.Service, region)
	case !cred.Complete():
		svc, reg := endpoint.ParseHost(host)
		if cred.Service == "" {
			cred.Service = svc
		}
		if cred.Region == "" {
			cred.Region = reg
		}
	}

	headers := req.headers().Clone()
	if _, _, ok := headers.Get("host"); !ok {
		headers.Set("host", host)
	}

	query := cloneValues(resolved.SearchQuery)

	if cred.SessionToken != "" {
		if opts.Query {
			query.Set("X-Amz-Security-Token", cred.SessionToken)
		} else {
			headers.Set("x-amz-security-token", cred.SessionToken)
		}
	}

	var timestamp string
	var generated bool
	if opts.Query {
		timestamp = query.Get("X-Amz-Date")
	} else {
		_, v, ok := headers.Get("x-amz-date")
		if ok {
			timestamp = v
		}
	}
	if timestamp == "" {
		timestamp = keys.FormatTimestamp(opts.Timestamp)
		generated = true
	} else if !ValidTimestamp(timestamp) {
		return SignResult{}, newErr(KindInvalidFormat, "SignRequest", ErrInvalidTimestamp)
	}
	dateStamp := timestamp[:8]

	var signing keys.SigningData
	if opts.Cache != nil {
		signing = opts.Cache.Derive(dateStamp, cred.SecretKey, cred.Region, cred.Service)
	} else {
		signing = keys.Derive(dateStamp, cred.SecretKey, cred.Region, cred.Service)
	}

	Log.WithFields(logrus.Fields{
		"access_key": cred.AccessKey,
		"scope":      signing.Scope,
		"query_mode": opts.Query,
	}).Debug("sigv4: signing request")

	bodyHash := canon.HashBody(req.Body.Raw, req.Body.Hash)
	if req.Unsigned {
		bodyHash = UnsignedPayload
	}

	result := SignResult{Timestamp: timestamp, Scope: signing.Scope, Params: map[string]string{}}
	if generated {
		if opts.Query {
			result.Params["X-Amz-Date"] = timestamp
		} else {
			result.Params["x-amz-date"] = timestamp
		}
	}

	if opts.Query {
		if !opts.AllowSignedQueryPayload {
			bodyHash = UnsignedPayload
		}
		credentialValue := cred.AccessKey + "/" + signing.Scope
		signedHeaderNames, err := signedHeaderList(headers)
		if err != nil {
			return SignResult{}, err
		}
		query.Set("X-Amz-Algorithm", keys.HeaderAlgorithm)
		query.Set("X-Amz-Credential", credentialValue)
		query.Set("X-Amz-SignedHeaders", signedHeaderNames)
		if generated {
			query.Set("X-Amz-Date", timestamp)
		}
		if opts.ExpiresSeconds > 0 {
			query.Set("X-Amz-Expires", strconv.Itoa(opts.ExpiresSeconds))
		} else if query.Get("X-Amz-Expires") == "" {
			query.Set("X-Amz-Expires", strconv.Itoa(DefaultPresignExpiry))
		}

		canonicalRequest, _, err := buildCanonicalRequest(req.method(), resolved.Pathname, query, headers, bodyHash, opts.Canonical)
		if err != nil {
			return SignResult{}, err
		}
		sig := signHex(canonicalRequest, timestamp, signing)
		query.Set("X-Amz-Signature", sig)

		result.Signature = sig
		paramNames := []string{"X-Amz-Algorithm", "X-Amz-Credential", "X-Amz-SignedHeaders", "X-Amz-Expires", "X-Amz-Signature"}
		if cred.SessionToken != "" {
			paramNames = append(paramNames, "X-Amz-Security-Token")
		}
		for _, k := range paramNames {
			result.Params[k] = query.Get(k)
		}

		if opts.Set {
			req.URL = URLValue{Host: host, Pathname: resolved.Pathname, SearchQuery: query}
			req.Headers = headers
		}
		return result, nil
	}

	if generated {
		headers.Set("x-amz-date", timestamp)
	}
	if opts.SetContentHash {
		headers.Set("x-amz-content-sha256", bodyHash)
		result.Params["x-amz-content-sha256"] = bodyHash
	}
	canonicalRequest, signedHeaderNames, err := buildCanonicalRequest(req.method(), resolved.Pathname, query, headers, bodyHash, opts.Canonical)
	if err != nil {
		return SignResult{}, err
	}
	sig := signHex(canonicalRequest, timestamp, signing)
	auth := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		keys.HeaderAlgorithm, cred.AccessKey, signing.Scope, signedHeaderNames, sig)

	result.Signature = sig
	result.Authorization = auth
	result.Params["authorization"] = auth

	if opts.Set {
		headers.Set("authorization", auth)
		req.Headers = headers
		req.URL = URLValue{Host: host, Pathname: resolved.Pathname, SearchQuery: resolved.SearchQuery}
	}
	return result, nil
}

func buildCanonicalRequest(method, pathname string, query url.Values, headers *Headers, bodyHash string, opts CanonicalOptions) (canonicalRequest, signedHeaders string, err error) {
	canonicalURI := canon.CanonicalURI(pathname, canon.URIOptions{DontNormalize: opts.DontNormalize, OnlyEncodeOnce: opts.OnlyEncodeOnce})
	canonicalQuery := canon.CanonicalQuery(canon.QueryParamsFromValues(query))

	inputs := make([]canon.HeaderInput, 0, len(headers.Names()))
	for _, name := range headers.sortedNames() {
		_, v, _ := headers.Get(name)
		inputs = append(inputs, canon.HeaderInput{Name: name, Value: v})
	}
	block, signed, err := canon.CanonicalHeaders(inputs)
	if err != nil {
		return "", "", newErr(KindInvalidInput, "buildCanonicalRequest", err)
	}

	canonicalRequest = strings.Join([]string{method, canonicalURI, canonicalQuery, block, signed, bodyHash}, "\n")
	return canonicalRequest, signed, nil
}

func signedHeaderList(headers *Headers) (string, error) {
	return strings.Join(headers.sortedNames(), ";"), nil
}

func signHex(canonicalRequest, timestamp string, signing keys.SigningData) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	digest := hex.EncodeToString(sum[:])
	mac := keys.SignDigest(digest, timestamp, signing, "")
	return hex.EncodeToString(mac)
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}

// AuthorizationParams is the parsed form of an Authorization header
// value, per §4.4 parse_authorization.
type AuthorizationParams struct {
	Algorithm     string
	Credential    string
	SignedHeaders string
	Signature     string
}

// ParseAuthorization lenently parses an Authorization header value:
// splits on the first space for the algorithm, then reads
// comma-separated Key=Value fields, tolerating extra whitespace around
// commas and equals signs. Last write wins for duplicate keys. All of
// Credential, SignedHeaders and Signature are required, and Signature
// must be even-length lower-case hex.
func ParseAuthorization(header string) (AuthorizationParams, error) {
	header = strings.TrimSpace(header)
	sp := strings.IndexByte(header, ' ')
	if sp < 0 {
		return AuthorizationParams{}, newErr(KindInvalidInput, "ParseAuthorization", ErrMissingSignature)
	}
	params := AuthorizationParams{Algorithm: header[:sp]}

	rest := header[sp+1:]
	for _, field := range strings.Split(rest, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		eq := strings.IndexByte(field, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(field[:eq])
		value := strings.TrimSpace(field[eq+1:])
		switch key {
		case "Credential":
			params.Credential = value
		case "SignedHeaders":
			params.SignedHeaders = value
		case "Signature":
			params.Signature = value
		}
	}

	if params.Credential == "" || params.SignedHeaders == "" || params.Signature == "" {
		return AuthorizationParams{}, newErr(KindInvalidInput, "ParseAuthorization", ErrMissingSignature)
	}
	if !isLowerHex(params.Signature) || len(params.Signature)%2 != 0 {
		return AuthorizationParams{}, newErr(KindInvalidInput, "ParseAuthorization", ErrInvalidSignature)
	}
	return params, nil
}

func isLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ParseCredentialScope splits the Credential value from an
// Authorization header or X-Amz-Credential query parameter
// ("<accessKey>/<dateStamp>/<region>/<service>/aws4_request") into its
// parts, grounded on the teacher's parseS3SignatureV4 credential
// splitting.
func ParseCredentialScope(credential string) (accessKey, dateStamp, region, service string, err error) {
	parts := strings.Split(credential, "/")
	if len(parts) != 5 || parts[4] != "aws4_request" {
		return "", "", "", "", newErr(KindInvalidInput, "ParseCredentialScope", ErrInvalidSignature)
	}
	return parts[0], parts[1], parts[2], parts[3], nil
}

// PresignedURLExpired reports whether a presigned URL signed at
// timestamp with the given X-Amz-Expires (seconds) has expired as of
// now, grounded on the teacher's presigned.ValidatePresignedURL expiry
// check.
func PresignedURLExpired(timestamp string, expiresSeconds int, now time.Time) (bool, error) {
	signedAt, err := time.Parse(keys.TimeFormat, timestamp)
	if err != nil {
		return false, newErr(KindInvalidFormat, "PresignedURLExpired", ErrInvalidTimestamp)
	}
	return signedAt.Add(time.Duration(expiresSeconds) * time.Second).Before(now), nil
}
