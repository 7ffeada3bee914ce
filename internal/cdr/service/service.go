// Package service normalizes raw switch records into canonical call records
// and computes declaration bonuses.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"callcenter_backend/internal/cdr/client"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/phone"
)

// Fetcher retrieves raw call records from the switch.
type Fetcher interface {
	Fetch(ctx context.Context, agentCode string, months int) ([]client.RawCall, error)
}

// WindowCache caches raw fetch windows. A nil cache disables caching.
type WindowCache interface {
	Get(ctx context.Context, agentCode string, months int) ([]client.RawCall, bool)
	Set(ctx context.Context, agentCode string, months int, calls []client.RawCall)
}

// DeclarationStatusReader reports the active declaration status per dedup key.
type DeclarationStatusReader interface {
	StatusesByDedupKeys(ctx context.Context, keys []string) (map[string]string, error)
}

// CallRecord is the canonical shape of a qualifying switch record.
type CallRecord struct {
	CallDate        string
	Source          string
	Destination     string
	DurationSeconds int
	Line            string
	Email           string
	RecordingRef    string
	DedupKey        string

	// Declaration annotation, filled by the service.
	Declared          bool
	DeclarationStatus string
}

// Service is the call-record application service.
type Service struct {
	fetcher    Fetcher
	cache      WindowCache
	statuses   DeclarationStatusReader
	minSeconds int
	log        *logger.Logger
}

// New creates the call-record service. cache may be nil.
func New(fetcher Fetcher, cache WindowCache, statuses DeclarationStatusReader, minSeconds int, log *logger.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		cache:      cache,
		statuses:   statuses,
		minSeconds: minSeconds,
		log:        log,
	}
}

// DedupKey builds the deterministic identity of a call record.
func DedupKey(callDate, src, dst string) string {
	return fmt.Sprintf("%s_%s_%s", callDate, src, dst)
}

// Normalize resolves the switch's field-name variants into a CallRecord.
func Normalize(raw client.RawCall) CallRecord {
	callDate := firstNonEmpty(raw.Calldate, raw.CallDate, raw.StartTime)
	src := firstNonEmpty(raw.Src, raw.Source, raw.From)
	dst := firstNonEmpty(raw.Dst, raw.Destination, raw.To)

	duration := int(raw.Billsec)
	if duration == 0 {
		duration = int(raw.Duration)
	}

	return CallRecord{
		CallDate:        callDate,
		Source:          src,
		Destination:     dst,
		DurationSeconds: duration,
		Line:            raw.Line,
		Email:           raw.Email,
		RecordingRef:    raw.Record,
		DedupKey:        DedupKey(callDate, src, dst),
	}
}

// FilterQualifying keeps records meeting the minimum duration. The boundary
// is inclusive.
func FilterQualifying(records []CallRecord, minSeconds int) []CallRecord {
	kept := make([]CallRecord, 0, len(records))
	for _, r := range records {
		if r.DurationSeconds >= minSeconds {
			kept = append(kept, r)
		}
	}
	return kept
}

// AgentExtension derives the switch extension from an agent code: the last
// three digits.
func AgentExtension(agentCode string) (string, error) {
	digits := phone.Digits(agentCode)
	if len(digits) < 3 {
		return "", apperr.Validation("agent code must contain at least 3 digits")
	}
	return digits[len(digits)-3:], nil
}

// ListCalls fetches, filters and annotates the agent's qualifying calls for
// the trailing window, newest first.
func (s *Service) ListCalls(ctx context.Context, agentCode string, months int) ([]CallRecord, error) {
	ext, err := AgentExtension(agentCode)
	if err != nil {
		return nil, err
	}
	if months < 1 {
		months = 1
	}

	raw, cached := s.fetchWindow(ctx, ext, months)
	if !cached {
		raw, err = s.fetcher.Fetch(ctx, ext, months)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, ext, months, raw)
		}
	}
	s.log.CDRFetch(ext, months, len(raw), cached)

	records := make([]CallRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, Normalize(r))
	}
	records = FilterQualifying(records, s.minSeconds)

	if err := s.annotate(ctx, records); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CallDate > records[j].CallDate
	})

	return records, nil
}

// ListUndeclared returns qualifying calls without an active declaration.
// Exclusion happens here, not in the normalizer: the filter stays pure.
func (s *Service) ListUndeclared(ctx context.Context, agentCode string, months int) ([]CallRecord, error) {
	records, err := s.ListCalls(ctx, agentCode, months)
	if err != nil {
		return nil, err
	}

	undeclared := make([]CallRecord, 0, len(records))
	for _, r := range records {
		if !r.Declared {
			undeclared = append(undeclared, r)
		}
	}
	return undeclared, nil
}

// FindCallForLead scans the agent's qualifying calls for one whose
// destination matches the lead's phone number. Used by the deposit
// confirmation picker.
func (s *Service) FindCallForLead(ctx context.Context, agentCode string, months int, leadPhone string) (CallRecord, error) {
	records, err := s.ListCalls(ctx, agentCode, months)
	if err != nil {
		return CallRecord{}, err
	}

	for _, r := range records {
		if phone.SameNumber(r.Destination, leadPhone) {
			return r, nil
		}
	}
	return CallRecord{}, apperr.NotFound("no qualifying call matches the lead phone number")
}

func (s *Service) fetchWindow(ctx context.Context, ext string, months int) ([]client.RawCall, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, ext, months)
}

func (s *Service) annotate(ctx context.Context, records []CallRecord) error {
	if s.statuses == nil || len(records) == 0 {
		return nil
	}

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.DedupKey)
	}

	statuses, err := s.statuses.StatusesByDedupKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("read declaration statuses: %w", err)
	}

	for i := range records {
		if status, ok := statuses[records[i].DedupKey]; ok {
			records[i].Declared = true
			records[i].DeclarationStatus = status
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
