package freshdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func writeListPage(w http.ResponseWriter, first, count int) {
	items := make([]item, count)
	for i := range items {
		items[i] = item{ID: first + i}
	}
	_ = json.NewEncoder(w).Encode(items)
}

func TestFetchAllPages_DrainsUntilShortPage(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.Equal(t, strconv.Itoa(listPageSize), r.URL.Query().Get("per_page"))

		switch page {
		case 1, 2:
			writeListPage(w, (page-1)*listPageSize, listPageSize)
		case 3:
			writeListPage(w, 2*listPageSize, 37)
		default:
			t.Errorf("unexpected page %d requested", page)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	items, err := fetchAllPages[item](context.Background(), c, "/api/v2/agents", nil)

	require.NoError(t, err)
	require.Len(t, items, 2*listPageSize+37)
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate item %d", it.ID)
		seen[it.ID] = true
	}
}

func TestFetchAllPages_EmptyFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	items, err := fetchAllPages[item](context.Background(), c, "/api/v2/groups", nil)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchAllPages_TotalConsistency(t *testing.T) {
	const total = 73

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.NotEmpty(t, r.URL.Query().Get("query"))

		count := searchPageSize
		if page*searchPageSize > total {
			count = total - (page-1)*searchPageSize
		}
		items := make([]item, count)
		for i := range items {
			items[i] = item{ID: (page-1)*searchPageSize + i}
		}
		_ = json.NewEncoder(w).Encode(searchPage[item]{Results: items, Total: total})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	items, gotTotal, err := searchAllPages[item](context.Background(), c, "/api/v2/search/tickets", "status:2", maxSearchPages)

	require.NoError(t, err)
	assert.Equal(t, total, gotTotal)
	require.Len(t, items, total, "never more items than the reported total")

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate item %d", it.ID)
		seen[it.ID] = true
	}
}

func TestSearchAllPages_FailedPageDegradesToEmpty(t *testing.T) {
	const total = 73

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"boom"}`))
			return
		}

		count := searchPageSize
		if page*searchPageSize > total {
			count = total - (page-1)*searchPageSize
		}
		items := make([]item, count)
		for i := range items {
			items[i] = item{ID: (page-1)*searchPageSize + i}
		}
		_ = json.NewEncoder(w).Encode(searchPage[item]{Results: items, Total: total})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	items, gotTotal, err := searchAllPages[item](context.Background(), c, "/api/v2/search/tickets", "status:2", maxSearchPages)

	require.NoError(t, err, "one failed page must not abort the fetch")
	assert.Equal(t, total, gotTotal)
	assert.Len(t, items, total-searchPageSize)
}

func TestSearchAllPages_FirstPageFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad query"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, _, err := searchAllPages[item](context.Background(), c, "/api/v2/search/tickets", "bogus", maxSearchPages)
	require.Error(t, err, "page 1 carries the total, its failure is fatal")
}

func TestSearchAllPages_PageCapTruncates(t *testing.T) {
	var maxPageSeen int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		for {
			seen := atomic.LoadInt32(&maxPageSeen)
			if int32(page) <= seen || atomic.CompareAndSwapInt32(&maxPageSeen, seen, int32(page)) {
				break
			}
		}

		items := make([]item, searchPageSize)
		for i := range items {
			items[i] = item{ID: (page-1)*searchPageSize + i}
		}
		_ = json.NewEncoder(w).Encode(searchPage[item]{Results: items, Total: 1000})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	items, _, err := searchAllPages[item](context.Background(), c, "/api/v2/search/tickets", "status:2", 3)

	require.NoError(t, err)
	assert.Len(t, items, 3*searchPageSize)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxPageSeen), int32(3))
}

func TestSearchOnePage_QuotesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("%q", "(status:2 OR status:3) AND group_id:7"), r.URL.Query().Get("query"))
		_ = json.NewEncoder(w).Encode(searchPage[item]{Results: nil, Total: 0})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, _, err := searchOnePage[item](context.Background(), c, "/api/v2/search/tickets", "(status:2 OR status:3) AND group_id:7", 1)
	require.NoError(t, err)
}
