package canon

import (
	"net/url"
	"testing"
)

func TestCanonicalURI(t *testing.T) {
	cases := []struct {
		name string
		path string
		opts URIOptions
		want string
	}{
		{"empty", "", URIOptions{}, "/"},
		{"dot segments", "/a/b/../c/%2E./d", URIOptions{}, "/a/d"},
		{"double slash and encoded slash", "//%2f//", URIOptions{}, "/%252F/"},
		{"non-ascii", "/test\U0001F60A", URIOptions{}, "/test%25F0%259F%2598%258A"},
		{"already simple", "/a/b", URIOptions{}, "/a/b"},
		{"trailing slash preserved", "/a/b/", URIOptions{}, "/a/b/"},
		{"s3 dont-normalize onlyEncodeOnce", "/root//folder A", URIOptions{DontNormalize: true, OnlyEncodeOnce: true}, "/root//folder%20A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanonicalURI(tc.path, tc.opts)
			if got != tc.want {
				t.Errorf("CanonicalURI(%q, %+v) = %q, want %q", tc.path, tc.opts, got, tc.want)
			}
		})
	}
}

func TestCanonicalURIIdempotent(t *testing.T) {
	inputs := []string{"/a/b/c", "/a/b/../c", "/", "//x//y"}
	for _, in := range inputs {
		once := CanonicalURI(in, URIOptions{})
		twice := CanonicalURI(once, URIOptions{})
		if once != twice {
			t.Errorf("CanonicalURI not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCanonicalQuerySortedAndEncoded(t *testing.T) {
	params := []QueryParam{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
		{Name: "a", Value: "0"},
		{Name: "", Value: "dropped"},
	}
	got := CanonicalQuery(params)
	want := "a=0&a=1&b=2"
	if got != want {
		t.Errorf("CanonicalQuery = %q, want %q", got, want)
	}
}

func TestCanonicalQueryEmpty(t *testing.T) {
	if got := CanonicalQuery(nil); got != "" {
		t.Errorf("CanonicalQuery(nil) = %q, want empty string", got)
	}
}

func TestQueryParamsFromValues(t *testing.T) {
	v := url.Values{"x": {"1", "2"}}
	params := QueryParamsFromValues(v)
	if len(params) != 2 {
		t.Fatalf("got %d params, want 2", len(params))
	}
}

func TestCanonicalHeaders(t *testing.T) {
	inputs := []HeaderInput{
		{Name: "X-Amz-Date", Value: "20190901T084743Z"},
		{Name: "Host", Value: "examplebucket.s3.amazonaws.com"},
		{Name: "X-Amz-Content-Sha256", Value: "  a   b  "},
	}
	block, signed, err := CanonicalHeaders(inputs)
	if err != nil {
		t.Fatalf("CanonicalHeaders: %v", err)
	}
	wantSigned := "host;x-amz-content-sha256;x-amz-date"
	if signed != wantSigned {
		t.Errorf("signed headers = %q, want %q", signed, wantSigned)
	}
	wantBlock := "host:examplebucket.s3.amazonaws.com\n" +
		"x-amz-content-sha256:a b\n" +
		"x-amz-date:20190901T084743Z\n"
	if block != wantBlock {
		t.Errorf("block = %q, want %q", block, wantBlock)
	}
}

func TestCanonicalHeadersRejectsDuplicates(t *testing.T) {
	inputs := []HeaderInput{{Name: "Foo", Value: "1"}, {Name: "foo", Value: "2"}}
	if _, _, err := CanonicalHeaders(inputs); err == nil {
		t.Fatal("expected a duplicate-header error")
	}
}

func TestCanonicalHeadersPermutationInvariant(t *testing.T) {
	a := []HeaderInput{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}
	b := []HeaderInput{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}
	blockA, signedA, err := CanonicalHeaders(a)
	if err != nil {
		t.Fatal(err)
	}
	blockB, signedB, err := CanonicalHeaders(b)
	if err != nil {
		t.Fatal(err)
	}
	if blockA != blockB || signedA != signedB {
		t.Error("canonical headers are not permutation-invariant")
	}
}

func TestHashBody(t *testing.T) {
	if got := HashBody(nil, ""); got != EmptyBodySHA256 {
		t.Errorf("empty body hash = %q, want %q", got, EmptyBodySHA256)
	}
	if got := HashBody([]byte("x"), "precomputed"); got != "precomputed" {
		t.Errorf("precomputed hash should win, got %q", got)
	}
	got := HashBody([]byte("abc"), "")
	if len(got) != 64 {
		t.Errorf("HashBody(abc) has length %d, want 64", len(got))
	}
	if got == EmptyBodySHA256 {
		t.Error("non-empty body hashed to the empty-string digest")
	}
}
