package sigv4

import "testing"

func TestSignedRequestMethodDefaultsToGet(t *testing.T) {
	r := &SignedRequest{}
	if r.method() != "GET" {
		t.Errorf("method() = %q, want GET", r.method())
	}
}

func TestSignedRequestHeadersLazyInit(t *testing.T) {
	r := &SignedRequest{}
	h := r.headers()
	if h == nil {
		t.Fatal("headers() returned nil")
	}
	if r.Headers != h {
		t.Error("headers() did not persist the lazily created Headers onto the request")
	}
}

func TestToRequestOptionsProjectsFields(t *testing.T) {
	r := &SignedRequest{
		Method: "PUT",
		URL:    URLValue{Host: "s3.amazonaws.com", Pathname: "/bucket/key"},
	}
	r.headers().Set("content-type", "text/plain")

	opts, err := ToRequestOptions(r)
	if err != nil {
		t.Fatalf("ToRequestOptions: %v", err)
	}
	if opts.Method != "PUT" || opts.Host != "s3.amazonaws.com" || opts.Path != "/bucket/key" {
		t.Errorf("opts = %+v", opts)
	}
	if _, v, ok := opts.Headers.Get("content-type"); !ok || v != "text/plain" {
		t.Errorf("content-type header = %q, ok=%v", v, ok)
	}
}

func TestCredentialsComplete(t *testing.T) {
	if (Credentials{}).Complete() {
		t.Error("empty Credentials should not be complete")
	}
	if !(Credentials{Region: "us-east-1", Service: "s3"}).Complete() {
		t.Error("Credentials with both Region and Service should be complete")
	}
	if (Credentials{Region: "us-east-1"}).Complete() {
		t.Error("Credentials missing Service should not be complete")
	}
}
