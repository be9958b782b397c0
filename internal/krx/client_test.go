package krx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkrx/krxsnap/internal/dates"
)

func newTestClient(baseURL string) *Client {
	return New(Options{
		BaseURL:   baseURL,
		Referer:   "http://example.test/",
		UserAgent: "krxsnap-test",
		Rate:      1000, // don't throttle tests
		Burst:     1000,
	})
}

func TestFetch_FormAndBlock(t *testing.T) {
	var gotBLD, gotTrdDd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotBLD = r.PostFormValue("bld")
		gotTrdDd = r.PostFormValue("trdDd")
		fmt.Fprint(w, `{"output":[{"IDX_NM":"코스피","CLSPRC_IDX":"2,500.10"}],"CURRENT_DATETIME":"2025-02-07 18:00:00"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	rows, ts, err := c.Fetch(context.Background(), IndexHistory, map[string]string{"trdDd": "20250207"})
	require.NoError(t, err)
	assert.Equal(t, IndexHistory.BLD, gotBLD)
	assert.Equal(t, "20250207", gotTrdDd)
	assert.Equal(t, "2025-02-07 18:00:00", ts)
	require.Len(t, rows, 1)
	assert.Equal(t, "코스피", rows[0]["IDX_NM"])
}

func TestFetch_MissingBlockIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"SomethingElse":[],"CURRENT_DATETIME":"x"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, _, err := c.Fetch(context.Background(), ETFQuotes, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"output"`)
}

func TestFetch_HTTPErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, _, err := c.Fetch(context.Background(), ETFQuotes, nil)
	require.Error(t, err)
}

func TestFetchRange_SingleWindow(t *testing.T) {
	var mu sync.Mutex
	var windows [][2]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		windows = append(windows, [2]string{r.PostFormValue("strtDd"), r.PostFormValue("endDd")})
		mu.Unlock()
		fmt.Fprint(w, `{"output":[{"TRD_DD":"2025/01/03"},{"TRD_DD":"2025/01/02"}],"CURRENT_DATETIME":"x"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	rows, err := c.FetchRange(context.Background(), StockHistory, map[string]string{"isuCd": "KR7005930003"}, "2025-01-01", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, [2]string{"20250101", "20250110"}, windows[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "2025/01/03", rows[0]["TRD_DD"])
}

func TestFetchRange_SplitsAndMergesMostRecentFirst(t *testing.T) {
	// Each window responds with rows tagged by its own start date, so the
	// merge order is observable. Empty second window keeps the inter-window
	// pause at the short tier.
	var mu sync.Mutex
	var windows [][2]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		start := r.PostFormValue("strtDd")
		mu.Lock()
		windows = append(windows, [2]string{start, r.PostFormValue("endDd")})
		n := len(windows)
		mu.Unlock()
		if n == 1 {
			fmt.Fprintf(w, `{"output":[{"TAG":"w1-%s"}],"CURRENT_DATETIME":"x"}`, start)
			return
		}
		fmt.Fprintf(w, `{"output":[{"TAG":"w2-%s"}],"CURRENT_DATETIME":"x"}`, start)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	// 2000 days total: window 1 covers 730, then cursor skips to day 731.
	start := dates.Date("2018-01-01")
	end := start.AddDay(2000)
	rows, err := c.FetchRange(context.Background(), StockHistory, nil, start, end)
	require.NoError(t, err)

	require.Len(t, windows, 3)
	assert.Equal(t, "20180101", windows[0][0])
	assert.Equal(t, start.AddDay(730).Marshal(""), windows[0][1])
	assert.Equal(t, start.AddDay(731).Marshal(""), windows[1][0])

	// Later (more recent) windows are prepended.
	require.Len(t, rows, 3)
	assert.Equal(t, "w2-"+windows[2][0], rows[0]["TAG"])
	assert.Equal(t, "w2-"+windows[1][0], rows[1]["TAG"])
	assert.Equal(t, "w1-20180101", rows[2]["TAG"])
}

func TestFetchRange_EmptyRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty range")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	rows, err := c.FetchRange(context.Background(), StockHistory, nil, "2025-01-10", "2025-01-10")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
