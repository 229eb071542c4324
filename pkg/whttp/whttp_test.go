package whttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTMLTitle(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"simple", "<html><head><title>502 Bad Gateway</title></head></html>", "502 Bad Gateway", true},
		{"newlines", "<title>\n  Service\r\n Unavailable </title>", "Service Unavailable", true},
		{"empty title", "<title></title>", "", true},
		{"no title", "<html><body>hi</body></html>", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := HTMLTitle(tc.body)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("HTMLTitle() = %q, %v; want %q, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestSendHTTPRequest(t *testing.T) {
	var gotBody, gotToken, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotToken = r.Header.Get("X-Sync-Token")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "<html><title>Down for maintenance</title></html>")
	}))
	defer srv.Close()

	client, err := NewClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Body:    []byte(`{"a":1}`),
		Headers: []WHTTPHeader{{Name: "X-Sync-Token", Value: "tok"}},
	}, client)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 passed through", res.StatusCode)
	}
	if res.HTTPTitle != "Down for maintenance" {
		t.Errorf("title = %q", res.HTTPTitle)
	}
	if gotBody != `{"a":1}` || gotToken != "tok" || gotUA != UserAgent {
		t.Errorf("server saw body=%q token=%q ua=%q", gotBody, gotToken, gotUA)
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient("://bad", 0); err == nil {
		t.Fatal("expected an error for a malformed proxy URL")
	}
}
