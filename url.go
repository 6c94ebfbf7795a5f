package sigv4

import (
	"net/url"
	"strings"
)

// URLValue models the SignedRequest's URL field as the sum type the
// design notes call for: either an opaque raw string parsed on
// demand, or structured fields the caller already decomposed. Exactly
// one of Raw or the structured fields should be meaningful; Resolve
// normalizes either shape into the structured form used throughout
// canonicalization.
type URLValue struct {
	Raw string

	Host        string
	Pathname    string
	SearchQuery url.Values
}

// resolvedURL is the structured form every signer operates on.
type resolvedURL struct {
	Host        string
	Pathname    string
	SearchQuery url.Values
}

// Resolve parses Raw (if set) into host/pathname/query, otherwise
// returns the structured fields as supplied.
func (u URLValue) Resolve() (resolvedURL, error) {
	if u.Raw == "" {
		q := u.SearchQuery
		if q == nil {
			q = url.Values{}
		}
		return resolvedURL{Host: u.Host, Pathname: u.Pathname, SearchQuery: q}, nil
	}

	parsed, err := url.Parse(u.Raw)
	if err != nil {
		return resolvedURL{}, newErr(KindInvalidInput, "URLValue.Resolve", err)
	}
	pathname := parsed.EscapedPath()
	if pathname == "" {
		pathname = "/"
	}
	return resolvedURL{
		Host:        parsed.Host,
		Pathname:    pathname,
		SearchQuery: parsed.Query(),
	}, nil
}

// ToURL reassembles a resolvedURL into "scheme://host/pathname?query".
// Scheme defaults to https and pathname defaults to /. A missing host
// with a non-root pathname is a fatal input error, matching the
// spec's to_url contract.
func (u resolvedURL) ToURL(scheme string) (string, error) {
	if scheme == "" {
		scheme = "https"
	}
	pathname := u.Pathname
	if pathname == "" {
		pathname = "/"
	}
	if u.Host == "" && pathname != "/" {
		return "", newErr(KindInvalidInput, "resolvedURL.ToURL", ErrInvalidURL)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteString(pathname)
	if q := u.SearchQuery.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String(), nil
}

// RequestOptions is the flat shape an HTTP client expects, projected
// from a SignedRequest via ToRequestOptions.
type RequestOptions struct {
	Method  string
	Host    string
	Path    string
	Headers *Headers
}
