package app

import (
	"net/http"
	"testing"
)

func TestNewHTTPClient_Pooling(t *testing.T) {
	c := newHTTPClient()
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConnsPerHost <= 0 || tr.Proxy == nil {
		t.Fatalf("unexpected transport settings: %+v", tr)
	}
	if c.Timeout != 0 {
		t.Fatalf("client timeout should be left to the fetcher, got %v", c.Timeout)
	}
}
