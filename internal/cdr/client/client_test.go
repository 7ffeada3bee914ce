package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, logger.New("development")), srv
}

func TestFetchArrayPayload(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("agent"); got != "727" {
			t.Errorf("agent query = %q, want 727", got)
		}
		if got := r.URL.Query().Get("m"); got != "2" {
			t.Errorf("m query = %q, want 2", got)
		}
		w.Write([]byte(`[{"calldate":"2026-08-01 10:00:00","src":"727","dst":"14377576727","billsec":930}]`))
	})

	calls, err := c.Fetch(context.Background(), "727", 2)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Billsec != 930 {
		t.Fatalf("billsec = %d, want 930", calls[0].Billsec)
	}
}

func TestFetchStringWrappedPayload(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"[{\"calldate\":\"2026-08-01 10:00:00\",\"src\":\"727\",\"dst\":\"14377576727\",\"billsec\":\"930\"}]"`))
	})

	calls, err := c.Fetch(context.Background(), "727", 2)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(calls) != 1 || calls[0].Billsec != 930 {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestFetchDataObjectPayload(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"call_date":"2026-08-01 10:00:00","source":"727","destination":"14377576727","duration":1000}]}`))
	})

	calls, err := c.Fetch(context.Background(), "727", 1)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(calls) != 1 || calls[0].Duration != 1000 {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestFetchUpstreamErrorIsUnavailable(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), "727", 2)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("error kind = %v, want KindUnavailable", apperr.GetKind(err))
	}
}

func TestFetchUnreachableIsUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond, logger.New("development"))

	_, err := c.Fetch(context.Background(), "727", 2)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("error kind = %v, want KindUnavailable", apperr.GetKind(err))
	}
}
