package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inventory", r.URL.Path)
		w.Write([]byte(`{"fresh":[{"id":1,"name":"Milk","category":"Food","expiry_date":"2026-09-01"}],"expired":[{"id":2,"name":"Yogurt","category":"Food","expiry_date":"2026-08-01"}]}`))
	}))
	defer srv.Close()

	inv, err := NewClient(srv.URL, 0).FetchInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, inv.Fresh, 1)
	require.Len(t, inv.Expired, 1)
	assert.Equal(t, "Milk", inv.Fresh[0].Name)
	assert.Equal(t, "2026-09-01", inv.Fresh[0].ExpiryDate)
}

func TestFetchCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categories", r.URL.Path)
		w.Write([]byte(`{"categories":[{"name":"General","type":"system"},{"name":"Snacks","type":"custom"}]}`))
	}))
	defer srv.Close()

	cats, err := NewClient(srv.URL, 0).FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "system", cats[0].Type)
	assert.Equal(t, "Snacks", cats[1].Name)
}

func TestReadRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"fresh":[],"expired":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 1).FetchInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReadRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 1).FetchInventory(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestUnauthorizedReadDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Authentication required"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 3).FetchInventory(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReadCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(srv.URL, 3).FetchInventory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddItemPostsPayload(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).AddItem(context.Background(), "Milk", "2026-09-01", "Food")
	require.NoError(t, err)
	assert.Equal(t, "/api/add_item", gotPath)
	assert.Contains(t, string(gotBody), `"expiry_date":"2026-09-01"`)
	assert.Contains(t, string(gotBody), `"name":"Milk"`)
}

func TestMutationErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Category already exists"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).AddCategory(context.Background(), "Food")
	var me *MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "Category already exists", me.Message)
	assert.Equal(t, "Category already exists", err.Error())
}

func TestMutationErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).DeleteItem(context.Background(), 7)
	var me *MutationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "the server rejected the change", err.Error())
}

func TestMutationUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).DeleteCategory(context.Background(), "Snacks")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
