package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler func(query string, variables map[string]any) (string, int)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, status := handler(req.Query, req.Variables)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestPool(t *testing.T) {
	srv := newTestServer(t, func(query string, _ map[string]any) (string, int) {
		if !strings.Contains(query, "pool(id: $poolId)") {
			t.Errorf("unexpected query: %s", query)
		}
		return `{"data": {"pool": {
			"tick": "-30",
			"sqrtPrice": "79200000000000000000000000000",
			"liquidity": "1000",
			"feeTier": "500",
			"token0": {"symbol": "A", "decimals": "18"},
			"token1": {"symbol": "B", "decimals": "6"}
		}}}`, http.StatusOK
	})
	defer srv.Close()

	client := NewClient(srv.URL)
	pool, err := client.Pool(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("fetch pool: %v", err)
	}
	if pool.ID != "0xabc" || pool.Tick != -30 || pool.FeeTier != 500 {
		t.Errorf("pool = %+v", pool)
	}
	if pool.Token1.Decimals != 6 {
		t.Errorf("token1 decimals = %d, want 6", pool.Token1.Decimals)
	}
}

func TestPoolNotFound(t *testing.T) {
	srv := newTestServer(t, func(string, map[string]any) (string, int) {
		return `{"data": {"pool": null}}`, http.StatusOK
	})
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Pool(context.Background(), "0xmissing"); err == nil {
		t.Fatal("missing pool did not error")
	}
}

func TestTicksPagination(t *testing.T) {
	pageSize := 2
	pages := [][2]string{
		{"-120", "100"},
		{"-60", "50"},
		{"60", "-50"},
		{"120", "-100"},
	}
	srv := newTestServer(t, func(_ string, variables map[string]any) (string, int) {
		skip := int(variables["skip"].(float64))
		end := skip + pageSize
		if end > len(pages) {
			end = len(pages)
		}
		var sb strings.Builder
		sb.WriteString(`{"data": {"ticks": [`)
		for i := skip; i < end; i++ {
			if i > skip {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"tickIdx": "%s", "liquidityNet": "%s"}`, pages[i][0], pages[i][1])
		}
		sb.WriteString(`]}}`)
		return sb.String(), http.StatusOK
	})
	defer srv.Close()

	client := NewClient(srv.URL, WithPageSize(pageSize))
	ticks, err := client.Ticks(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("fetch ticks: %v", err)
	}
	if len(ticks) != len(pages) {
		t.Fatalf("got %d ticks, want %d", len(ticks), len(pages))
	}
	if ticks[0].TickIdx != "-120" || ticks[3].LiquidityNet != "-100" {
		t.Errorf("ticks = %+v", ticks)
	}
}

func TestQueryRetriesTransientFailure(t *testing.T) {
	var calls int
	srv := newTestServer(t, func(string, map[string]any) (string, int) {
		calls++
		if calls < 3 {
			return `{"errors": [{"message": "service overloaded"}]}`, http.StatusOK
		}
		return `{"data": {"poolDayDatas": [{"date": 1714521600, "volumeUSD": "316896.3"}]}}`, http.StatusOK
	})
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(3, time.Millisecond))
	days, err := client.PoolDayData(context.Background(), "0xabc", 1)
	if err != nil {
		t.Fatalf("fetch day data: %v", err)
	}
	if calls != 3 {
		t.Errorf("server called %d times, want 3", calls)
	}
	if len(days) != 1 || days[0].VolumeUSD != "316896.3" {
		t.Errorf("days = %+v", days)
	}
}

func TestQueryGivesUpAfterAttempts(t *testing.T) {
	var calls int
	srv := newTestServer(t, func(string, map[string]any) (string, int) {
		calls++
		return `{"message": "bad gateway"}`, http.StatusBadGateway
	})
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(2, time.Millisecond))
	if _, err := client.Pool(context.Background(), "0xabc"); err == nil {
		t.Fatal("persistent failure did not error")
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}

func TestPosition(t *testing.T) {
	srv := newTestServer(t, func(_ string, variables map[string]any) (string, int) {
		if variables["positionId"] != "42" {
			t.Errorf("positionId = %v", variables["positionId"])
		}
		return `{"data": {"position": {
			"id": "42",
			"liquidity": "987654321",
			"tickLower": {"tickIdx": "-887220"},
			"tickUpper": {"tickIdx": "887220"},
			"pool": {"id": "0xpool"},
			"token0": {"symbol": "A", "decimals": "18"},
			"token1": {"symbol": "B", "decimals": "18"}
		}}}`, http.StatusOK
	})
	defer srv.Close()

	client := NewClient(srv.URL)
	pos, err := client.Position(context.Background(), "42")
	if err != nil {
		t.Fatalf("fetch position: %v", err)
	}
	if pos.PoolID != "0xpool" || pos.TickLower != -887220 || pos.TickUpper != 887220 {
		t.Errorf("position = %+v", pos)
	}
	if pos.Token0 == nil || pos.Token0.Symbol != "A" {
		t.Errorf("token0 = %+v", pos.Token0)
	}
}
