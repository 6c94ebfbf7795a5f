package sigv4

// BodyValue is a request body: either raw bytes to be hashed on
// demand, or a precomputed SHA-256 hex digest the caller already has
// (e.g. because the body was hashed while buffering a stream).
type BodyValue struct {
	Raw  []byte
	Hash string
}

// SignedRequest is the structured request description every signer
// operates on. It deliberately has no notion of an HTTP transport:
// the caller is responsible for turning it into (or extracting it
// from) whatever client library they use.
type SignedRequest struct {
	Method  string
	URL     URLValue
	Headers *Headers
	Body    BodyValue

	// Unsigned forces the S3 body-hash sentinel UNSIGNED-PAYLOAD
	// (§4.5) regardless of mode.
	Unsigned bool
	// ForceSignedPayload overrides the S3 query-mode default of always
	// using UNSIGNED-PAYLOAD, requesting the real body hash instead.
	// Ignored outside S3 query-mode signing, and by Unsigned=true.
	ForceSignedPayload bool
}

// method returns r.Method, defaulting to GET per the data model.
func (r *SignedRequest) method() string {
	if r.Method == "" {
		return "GET"
	}
	return r.Method
}

func (r *SignedRequest) headers() *Headers {
	if r.Headers == nil {
		r.Headers = NewHeaders()
	}
	return r.Headers
}

// ToRequestOptions projects a SignedRequest into the flat form an
// HTTP client expects (§4.3 to_request_options).
func ToRequestOptions(r *SignedRequest) (RequestOptions, error) {
	resolved, err := r.URL.Resolve()
	if err != nil {
		return RequestOptions{}, err
	}
	return RequestOptions{
		Method:  r.method(),
		Host:    resolved.Host,
		Path:    resolved.Pathname,
		Headers: r.headers(),
	}, nil
}
