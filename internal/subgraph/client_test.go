package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

const (
	basePool = "0x000000000000000000000000000000000000B001"
	metaPool = "0x000000000000000000000000000000000000B002"
	dayStart = int64(1700006400)
)

func TestAPRSummarySendsIDsAndDecodes(t *testing.T) {
	var got struct {
		Query     string              `json:"query"`
		Variables map[string][]string `json:"variables"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{
			"swaps":[{"address":"0x000000000000000000000000000000000000b001","adminFee":"5000000000","swapFee":"4000000"}],
			"dailyVolumes":[{"id":"0x000000000000000000000000000000000000b001-day-1700006400","volume":"1000000000000000000000000"}]
		}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{}, nil)
	summary, err := client.APRSummary(context.Background(), []string{basePool, metaPool}, dayStart)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	wantIDs := []string{
		"0x000000000000000000000000000000000000b001",
		"0x000000000000000000000000000000000000b002",
	}
	wantDV := []string{
		"0x000000000000000000000000000000000000b001-day-1700006400",
		"0x000000000000000000000000000000000000b002-day-1700006400",
	}
	if !reflect.DeepEqual(got.Variables["ids"], wantIDs) {
		t.Fatalf("ids = %v", got.Variables["ids"])
	}
	if !reflect.DeepEqual(got.Variables["dvIds"], wantDV) {
		t.Fatalf("dvIds = %v", got.Variables["dvIds"])
	}

	fees, err := summary.Fees(basePool, dayStart)
	if err != nil {
		t.Fatalf("fees: %v", err)
	}
	if !fees.Volume.Equal(decimal.RequireFromString("1000000000000000000000000")) {
		t.Fatalf("volume = %s", fees.Volume)
	}
	if !fees.SwapFee.Equal(decimal.NewFromInt(4000000)) || !fees.AdminFee.Equal(decimal.NewFromInt(5000000000)) {
		t.Fatalf("fee params = %s / %s", fees.SwapFee, fees.AdminFee)
	}

	missing, err := summary.Fees(metaPool, dayStart)
	if err != nil {
		t.Fatalf("fees for missing pool: %v", err)
	}
	if !missing.Volume.IsZero() || !missing.SwapFee.IsZero() || !missing.AdminFee.IsZero() {
		t.Fatalf("missing records should default to zero: %+v", missing)
	}
}

func TestQueryErrorsWithoutData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"indexing_error"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{}, nil)
	_, err := client.APRSummary(context.Background(), []string{basePool}, dayStart)
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
}

func TestQueryPartialErrorsKeepData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"swaps":[],"dailyVolumes":[]},"errors":[{"message":"store error"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{}, nil)
	summary, err := client.APRSummary(context.Background(), []string{basePool}, dayStart)
	if err != nil {
		t.Fatalf("partial errors should not fail: %v", err)
	}
	if len(summary.Swaps) != 0 || len(summary.DailyVolumes) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestQueryHTTPFailureIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{}, nil)
	if _, err := client.APRSummary(context.Background(), []string{basePool}, dayStart); err == nil {
		t.Fatalf("expected error for 502")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestFeesRejectsMalformedNumbers(t *testing.T) {
	summary := Summary{Swaps: []Swap{{Address: "0x000000000000000000000000000000000000b001", SwapFee: "x", AdminFee: "0"}}}
	if _, err := summary.Fees(basePool, dayStart); err == nil {
		t.Fatalf("expected parse error")
	}
}
