package service

import (
	"context"
	"testing"

	"callcenter_backend/internal/cdr/client"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

type fakeFetcher struct {
	calls []client.RawCall
	err   error
	hits  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, agentCode string, months int) ([]client.RawCall, error) {
	f.hits++
	return f.calls, f.err
}

type fakeStatuses struct {
	statuses map[string]string
}

func (f *fakeStatuses) StatusesByDedupKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return f.statuses, nil
}

type memoryCache struct {
	store map[string][]client.RawCall
}

func (m *memoryCache) Get(ctx context.Context, agentCode string, months int) ([]client.RawCall, bool) {
	calls, ok := m.store[agentCode]
	return calls, ok
}

func (m *memoryCache) Set(ctx context.Context, agentCode string, months int, calls []client.RawCall) {
	m.store[agentCode] = calls
}

func TestNormalizeFieldFallbacks(t *testing.T) {
	raw := client.RawCall{
		CallDate:    "2026-08-01 10:00:00",
		Source:      "727",
		Destination: "14377576727",
		Duration:    930,
	}

	rec := Normalize(raw)
	if rec.CallDate != "2026-08-01 10:00:00" || rec.Source != "727" || rec.Destination != "14377576727" {
		t.Fatalf("fallback fields not resolved: %+v", rec)
	}
	if rec.DurationSeconds != 930 {
		t.Fatalf("duration = %d, want 930", rec.DurationSeconds)
	}
	if rec.DedupKey != "2026-08-01 10:00:00_727_14377576727" {
		t.Fatalf("dedup key = %q", rec.DedupKey)
	}
}

func TestNormalizePrefersPrimaryFields(t *testing.T) {
	raw := client.RawCall{
		Calldate: "primary",
		CallDate: "secondary",
		Src:      "1",
		Source:   "2",
		Billsec:  900,
		Duration: 500,
	}

	rec := Normalize(raw)
	if rec.CallDate != "primary" || rec.Source != "1" || rec.DurationSeconds != 900 {
		t.Fatalf("primary fields not preferred: %+v", rec)
	}
}

func TestFilterQualifyingBoundary(t *testing.T) {
	records := []CallRecord{
		{DedupKey: "below", DurationSeconds: 899},
		{DedupKey: "exact", DurationSeconds: 900},
		{DedupKey: "above", DurationSeconds: 901},
	}

	kept := FilterQualifying(records, 900)
	if len(kept) != 2 {
		t.Fatalf("kept %d records, want 2", len(kept))
	}
	if kept[0].DedupKey != "exact" || kept[1].DedupKey != "above" {
		t.Fatalf("wrong records kept: %+v", kept)
	}
}

func TestAgentExtension(t *testing.T) {
	ext, err := AgentExtension("4727")
	if err != nil {
		t.Fatalf("AgentExtension returned error: %v", err)
	}
	if ext != "727" {
		t.Fatalf("ext = %q, want 727", ext)
	}

	if _, err := AgentExtension("12"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("short code error kind = %v, want KindValidation", apperr.GetKind(err))
	}
}

func TestListCallsAnnotatesAndSorts(t *testing.T) {
	fetcher := &fakeFetcher{calls: []client.RawCall{
		{Calldate: "2026-08-01 10:00:00", Src: "727", Dst: "111", Billsec: 930},
		{Calldate: "2026-08-02 10:00:00", Src: "727", Dst: "222", Billsec: 1000},
		{Calldate: "2026-08-03 10:00:00", Src: "727", Dst: "333", Billsec: 100},
	}}
	statuses := &fakeStatuses{statuses: map[string]string{
		DedupKey("2026-08-01 10:00:00", "727", "111"): "approved",
	}}

	svc := New(fetcher, nil, statuses, 900, logger.New("development"))
	records, err := svc.ListCalls(context.Background(), "4727", 2)
	if err != nil {
		t.Fatalf("ListCalls returned error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (short call filtered)", len(records))
	}
	if records[0].Destination != "222" {
		t.Fatalf("records not sorted newest first: %+v", records)
	}
	if !records[1].Declared || records[1].DeclarationStatus != "approved" {
		t.Fatalf("declared call not annotated: %+v", records[1])
	}
}

func TestListUndeclaredExcludesDeclared(t *testing.T) {
	fetcher := &fakeFetcher{calls: []client.RawCall{
		{Calldate: "2026-08-01 10:00:00", Src: "727", Dst: "111", Billsec: 930},
		{Calldate: "2026-08-02 10:00:00", Src: "727", Dst: "222", Billsec: 1000},
	}}
	statuses := &fakeStatuses{statuses: map[string]string{
		DedupKey("2026-08-02 10:00:00", "727", "222"): "pending",
	}}

	svc := New(fetcher, nil, statuses, 900, logger.New("development"))
	records, err := svc.ListUndeclared(context.Background(), "4727", 2)
	if err != nil {
		t.Fatalf("ListUndeclared returned error: %v", err)
	}

	if len(records) != 1 || records[0].Destination != "111" {
		t.Fatalf("unexpected undeclared set: %+v", records)
	}
}

func TestListCallsUsesCache(t *testing.T) {
	fetcher := &fakeFetcher{calls: []client.RawCall{
		{Calldate: "2026-08-01 10:00:00", Src: "727", Dst: "111", Billsec: 930},
	}}
	cache := &memoryCache{store: make(map[string][]client.RawCall)}

	svc := New(fetcher, cache, nil, 900, logger.New("development"))
	ctx := context.Background()

	if _, err := svc.ListCalls(ctx, "4727", 2); err != nil {
		t.Fatalf("first ListCalls returned error: %v", err)
	}
	if _, err := svc.ListCalls(ctx, "4727", 2); err != nil {
		t.Fatalf("second ListCalls returned error: %v", err)
	}

	if fetcher.hits != 1 {
		t.Fatalf("fetcher hit %d times, want 1 (second call cached)", fetcher.hits)
	}
}

func TestFindCallForLead(t *testing.T) {
	fetcher := &fakeFetcher{calls: []client.RawCall{
		{Calldate: "2026-08-01 10:00:00", Src: "727", Dst: "14377576727", Billsec: 3700},
	}}

	svc := New(fetcher, nil, nil, 900, logger.New("development"))

	rec, err := svc.FindCallForLead(context.Background(), "4727", 2, "+1 (437) 757-6727")
	if err != nil {
		t.Fatalf("FindCallForLead returned error: %v", err)
	}
	if rec.Destination != "14377576727" {
		t.Fatalf("wrong call matched: %+v", rec)
	}

	if _, err := svc.FindCallForLead(context.Background(), "4727", 2, "15550001111"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("no-match error kind = %v, want KindNotFound", apperr.GetKind(err))
	}
}
