package sigv4

// Credentials identifies the signer and, optionally, the scope it
// signs into. Region and Service are inferred from the request's host
// (via the endpoint resolver, see internal/endpoint) when absent; a
// Credentials value with both set is "complete" and bypasses
// inference entirely.
type Credentials struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
	// SessionToken, when non-empty, is signed in for temporary
	// credentials: SignRequest sets it as the x-amz-security-token
	// header in header mode, or the X-Amz-Security-Token query
	// parameter in query mode, before canonicalization, so it joins
	// the signed-header/signed-query set rather than riding along
	// unsigned.
	SessionToken string
}

// Complete reports whether both Region and Service are set, per the
// data model's "complete credentials" definition.
func (c Credentials) Complete() bool {
	return c.Region != "" && c.Service != ""
}
