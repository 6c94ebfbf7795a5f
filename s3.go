package sigv4

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/maxiofs/sigv4/internal/keys"
)

// s3Canonical is the fixed §4.5 canonicalization stance: S3 skips
// path normalization and only percent-encodes its canonical URI once.
var s3Canonical = CanonicalOptions{DontNormalize: true, OnlyEncodeOnce: true}

// SignS3Request layers the S3 quirks (§4.5) over SignRequest:
// dontNormalize/onlyEncodeOnce canonicalization, an "s3" service
// default when the URL has no host, unconditional
// x-amz-content-sha256 emission in header mode, and
// UNSIGNED-PAYLOAD/X-Amz-Expires handling in query mode.
func SignS3Request(cred Credentials, req *SignedRequest, opts SignOptions) (SignResult, error) {
	if cred.Service == "" {
		resolved, err := req.URL.Resolve()
		if err != nil {
			return SignResult{}, err
		}
		if resolved.Host == "" {
			cred.Service = "s3"
		}
	}

	opts.Canonical = s3Canonical
	if !opts.Query {
		_, _, hasHash := req.headers().Get("x-amz-content-sha256")
		opts.SetContentHash = !hasHash || opts.SetContentHash
	} else {
		opts.AllowSignedQueryPayload = req.ForceSignedPayload && !req.Unsigned
	}

	return SignRequest(cred, req, opts)
}

// PolicyDocument is the minimal shape SignPolicy needs: an
// expiration string left untouched, and a conditions array augmented
// with the SigV4 fields before signing. Callers building a full S3
// POST policy add their own bucket/key/content-length-range
// conditions before calling SignPolicy.
type PolicyDocument struct {
	Expiration string      `json:"expiration"`
	Conditions []Condition `json:"conditions"`
}

// Condition is one POST-policy condition, either a two-element match
// ({"key": "value"}, encoded as a single-entry object) or an
// AWS-style array condition (["starts-with", "$key", "value"]).
// Exactly one of Match or Rule should be set.
type Condition struct {
	Match map[string]string
	Rule  []string
}

// MarshalJSON encodes a Condition as whichever shape it holds.
func (c Condition) MarshalJSON() ([]byte, error) {
	if c.Rule != nil {
		return json.Marshal(c.Rule)
	}
	return json.Marshal(c.Match)
}

// PolicyResult is the set of form fields a caller attaches to a POST
// upload alongside the file field.
type PolicyResult struct {
	Policy        string
	AmzDate       string
	AmzAlgorithm  string
	AmzCredential string
	AmzSignature  string
}

// SignPolicy implements §4.5 sign_policy: a pure function of
// credentials, policy and an optional timestamp. It augments the
// policy's conditions, JSON-serializes it with the original
// expiration intact, base64-encodes the JSON, and HMACs the base64
// string with the derived signing key.
func SignPolicy(cred Credentials, policy PolicyDocument, timestamp time.Time) (PolicyResult, error) {
	ts := keys.FormatTimestamp(timestamp)
	dateStamp := ts[:8]
	signing := keys.Derive(dateStamp, cred.SecretKey, cred.Region, cred.Service)
	credentialValue := cred.AccessKey + "/" + signing.Scope

	augmented := policy
	augmented.Conditions = append(append([]Condition{}, policy.Conditions...),
		Condition{Match: map[string]string{"x-amz-date": ts}},
		Condition{Match: map[string]string{"x-amz-algorithm": keys.HeaderAlgorithm}},
		Condition{Match: map[string]string{"x-amz-credential": credentialValue}},
	)

	raw, err := json.Marshal(augmented)
	if err != nil {
		return PolicyResult{}, newErr(KindInvalidInput, "SignPolicy", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	mac := keys.SignString(signing.Key, []byte(encoded))

	return PolicyResult{
		Policy:        encoded,
		AmzDate:       ts,
		AmzAlgorithm:  keys.HeaderAlgorithm,
		AmzCredential: credentialValue,
		AmzSignature:  hex.EncodeToString(mac),
	}, nil
}
