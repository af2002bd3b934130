package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinwatch/internal/source"
)

func TestFetchCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("path=%s want /simple/price", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin" {
			t.Errorf("ids=%s want bitcoin", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":65432.1,"usd_market_cap":1.28e12,"usd_24h_vol":3.2e10,"last_updated_at":1769817600}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "")
	sample, err := c.FetchCurrent(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("FetchCurrent: %v", err)
	}
	if sample.Price.String() != "65432.1" {
		t.Fatalf("price=%s want 65432.1", sample.Price.String())
	}
	if sample.MarketCap == nil || sample.Volume24h == nil {
		t.Fatalf("market cap / volume missing: %+v", sample)
	}
	if want := time.Unix(1769817600, 0).UTC(); !sample.ObservedAt.Equal(want) {
		t.Fatalf("observed_at=%v want %v", sample.ObservedAt, want)
	}
}

func TestFetchCurrent_AssetMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "")
	_, err := c.FetchCurrent(context.Background(), "bitcoin")
	var srcErr *source.Error
	if !errors.As(err, &srcErr) || srcErr.Kind != source.KindMalformed {
		t.Fatalf("err=%v want malformed", err)
	}
}

func TestFetchCurrent_RateLimited(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "")
	_, err := c.FetchCurrent(context.Background(), "bitcoin")
	var srcErr *source.Error
	if !errors.As(err, &srcErr) || srcErr.Kind != source.KindRateLimited {
		t.Fatalf("err=%v want rate_limited", err)
	}
	// 429 must not be retried; the gate owns quota handling.
	if hits != 1 {
		t.Fatalf("hits=%d want 1", hits)
	}
}

func TestFetchCurrent_ServerErrorRetries(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":50000}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 10*time.Second, "")
	sample, err := c.FetchCurrent(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("FetchCurrent: %v", err)
	}
	if sample.Price.String() != "50000" {
		t.Fatalf("price=%s want 50000", sample.Price.String())
	}
	if hits != 2 {
		t.Fatalf("hits=%d want 2", hits)
	}
}

func TestFetchRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart/range" {
			t.Errorf("path=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"prices":[[1769810400000,64000.5],[1769814000000,64100.25]],
			"market_caps":[[1769810400000,1.27e12],[1769814000000,1.28e12]],
			"total_volumes":[[1769810400000,3.1e10]]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "")
	from := time.Unix(1769810400, 0)
	to := time.Unix(1769814000, 0)
	samples, err := c.FetchRange(context.Background(), "bitcoin", from, to)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("samples=%d want 2", len(samples))
	}
	if samples[0].Price.String() != "64000.5" {
		t.Fatalf("price=%s want 64000.5", samples[0].Price.String())
	}
	if !samples[0].ObservedAt.Equal(from) {
		t.Fatalf("observed_at=%v want %v", samples[0].ObservedAt, from)
	}
	if samples[0].MarketCap == nil || samples[0].Volume24h == nil {
		t.Fatalf("first sample missing aligned cap/volume: %+v", samples[0])
	}
	// Volume series is shorter than prices; the second point just skips it.
	if samples[1].Volume24h != nil {
		t.Fatalf("second sample volume=%v want nil", *samples[1].Volume24h)
	}
}

func TestFetchRange_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second, "")
	_, err := c.FetchRange(context.Background(), "bitcoin", time.Unix(0, 0), time.Unix(3600, 0))
	var srcErr *source.Error
	if !errors.As(err, &srcErr) {
		t.Fatalf("err=%v want source.Error", err)
	}
	if srcErr.Kind != source.KindUnreachable && srcErr.Kind != source.KindTimeout {
		t.Fatalf("kind=%s want unreachable or timeout", srcErr.Kind)
	}
}
