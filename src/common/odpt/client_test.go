package odpt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testKey = "s3cr3t-key"

func newTestClient(url string) *Client {
	return NewClient(url, testKey, 5*time.Second, zap.NewNop().Sugar())
}

func TestFetchRailways_SendsKeyAndFilter(t *testing.T) {
	var gotPath, gotKey, gotOperator string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotKey = req.URL.Query().Get(ParamConsumerKey)
		gotOperator = req.URL.Query().Get(ParamOperator)
		rw.Write([]byte(`[{"owl:sameAs":"odpt.Railway:A.Line","dc:title":"A Line"}]`))
	}))
	defer server.Close()

	railways, err := newTestClient(server.URL+"/api/v4").FetchRailways(context.Background(), "odpt.Operator:A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v4/odpt:Railway" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotKey != testKey {
		t.Errorf("expected key to be sent, got %q", gotKey)
	}
	if gotOperator != "odpt.Operator:A" {
		t.Errorf("expected operator filter, got %q", gotOperator)
	}
	if len(railways) != 1 || railways[0].ID() != "odpt.Railway:A.Line" {
		t.Errorf("unexpected railways %v", railways)
	}
}

func TestFetchStations_NoFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Has(ParamRailway) {
			t.Errorf("railway filter should be absent")
		}
		rw.Write([]byte(`[{"owl:sameAs":"S1"},{"owl:sameAs":"S2"}]`))
	}))
	defer server.Close()

	stations, err := newTestClient(server.URL).FetchStations(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stations) != 2 {
		t.Errorf("expected 2 stations, got %d", len(stations))
	}
}

func TestFetchOperators(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if !strings.HasSuffix(req.URL.Path, "/odpt:Operator") {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		rw.Write([]byte(`[{"owl:sameAs":"odpt.Operator:JR-East"}]`))
	}))
	defer server.Close()

	ops, err := newTestClient(server.URL + "/").FetchOperators(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 || ops[0].ID() != "odpt.Operator:JR-East" {
		t.Errorf("unexpected operators %v", ops)
	}
}

func TestHTTPErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		http.Error(rw, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStations(context.Background(), "R1")
	if err == nil {
		t.Fatal("expected error for 403")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if reqErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", reqErr.StatusCode)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error text leaks key: %s", err)
	}
	if !strings.Contains(err.Error(), redactedKey) {
		t.Errorf("expected redaction marker in %s", err)
	}
}

func TestTransportErrorRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).FetchRailways(context.Background(), "op")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error text leaks key: %s", err)
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 0 {
		t.Errorf("expected transport RequestError, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		select {
		case <-release:
		case <-req.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, testKey, 50*time.Millisecond, zap.NewNop().Sugar())
	_, err := client.FetchStations(context.Background(), "R1")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError on timeout, got %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error text leaks key: %s", err)
	}
}

func TestCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).FetchStations(ctx, "R1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStations(context.Background(), "R1")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Errorf("expected RequestError for undecodable body, got %v", err)
	}
}

func TestInvalidUTF8Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Write([]byte("[{\"owl:sameAs\":\"S\xff1\"}]"))
	}))
	defer server.Close()

	stations, err := newTestClient(server.URL).FetchStations(context.Background(), "R1")
	if stations != nil {
		t.Errorf("expected no stations, got %v", stations)
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError for invalid UTF-8, got %v", err)
	}
	if !strings.Contains(err.Error(), "UTF-8") {
		t.Errorf("unexpected error text %s", err)
	}
}
