package magentoapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal Magento JSON-RPC endpoint
type fakeStore struct {
	t         *testing.T
	mu        sync.Mutex
	results   map[string]string // procedure -> JSON result
	faults    map[string]*RPCError
	calls     []string
	ended     []string
	lastArgs  []any
	userAgent string
}

func newFakeStore(t *testing.T) *fakeStore {
	return &fakeStore{
		t:       t,
		results: make(map[string]string),
		faults:  make(map[string]*RPCError),
	}
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assert.Equal(s.t, http.MethodPost, r.Method)
	assert.Equal(s.t, DefaultEndpointPath, r.URL.Path)
	s.userAgent = r.Header.Get("User-Agent")

	var req rpcRequest
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(s.t, "2.0", req.JSONRPC)

	reply := func(result string, fault *RPCError) {
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if fault != nil {
			resp["error"] = fault
		} else {
			resp["result"] = json.RawMessage(result)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}

	switch req.Method {
	case methodLogin:
		if req.Params[0] != "api-user" || req.Params[1] != "api-key" {
			reply("", &RPCError{Code: FaultAccessDenied, Message: "Access denied."})
			return
		}
		reply(`"session-1"`, nil)
	case methodCall:
		proc := req.Params[1].(string)
		s.calls = append(s.calls, proc)
		s.lastArgs, _ = req.Params[2].([]any)
		if fault, ok := s.faults[proc]; ok {
			reply("", fault)
			return
		}
		reply(s.results[proc], nil)
	case methodEndSession:
		s.ended = append(s.ended, req.Params[0].(string))
		reply("true", nil)
	default:
		s.t.Errorf("unexpected method %q", req.Method)
	}
}

func newTestInstance(t *testing.T, url string) *magento.Instance {
	instance, err := magento.NewInstance(uuid.New(), "Test Store", url, "api-user", "api-key")
	require.NoError(t, err)
	return instance
}

func newTestClient(t *testing.T) *Client {
	client, err := NewClient(&Config{
		Timeout:          2 * time.Second,
		MaxResponseBytes: 1 << 20,
		UserAgent:        "connector-test",
	}, nil)
	require.NoError(t, err)
	return client
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"missing user agent", &Config{MaxResponseBytes: 1}, true},
		{"zero response budget", &Config{UserAgent: "x"}, true},
		{"negative timeout", &Config{UserAgent: "x", MaxResponseBytes: 1, Timeout: -time.Second}, true},
		{"relative endpoint", &Config{UserAgent: "x", MaxResponseBytes: 1, EndpointPath: "api/jsonrpc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, tt.config.EndpointPath)
		})
	}
}

func TestNewClient(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		client, err := NewClient(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultEndpointPath, client.config.EndpointPath)
		assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewClient(&Config{}, nil)
		assert.Error(t, err)
	})
}

func TestClient_FetchCategoryTree(t *testing.T) {
	store := newFakeStore(t)
	store.results[procCategoryTree] = `{
		"category_id": "1", "parent_id": "0", "name": "Root Catalog", "level": "0",
		"children": [
			{"category_id": "3", "parent_id": "1", "name": "Furniture", "level": "1", "children": []}
		]
	}`
	server := httptest.NewServer(store)
	defer server.Close()

	client := newTestClient(t)
	doc, err := client.FetchCategoryTree(context.Background(), newTestInstance(t, server.URL))
	require.NoError(t, err)

	assert.Equal(t, int64(1), doc.CategoryID.Int64())
	assert.Equal(t, "Root Catalog", doc.Name)
	require.Len(t, doc.Children, 1)
	assert.Equal(t, "Furniture", doc.Children[0].Name)

	assert.Equal(t, []string{procCategoryTree}, store.calls)
	assert.Empty(t, store.lastArgs)
	assert.Equal(t, []string{"session-1"}, store.ended)
	assert.Equal(t, "connector-test", store.userAgent)
}

func TestClient_FetchCategory(t *testing.T) {
	store := newFakeStore(t)
	store.results[procCategoryInfo] = `{
		"category_id": "8", "parent_id": "3", "name": "Chairs", "is_active": "1",
		"children": "11,12", "all_children": "8,11,12"
	}`
	server := httptest.NewServer(store)
	defer server.Close()

	doc, err := newTestClient(t).FetchCategory(context.Background(), newTestInstance(t, server.URL), 8)
	require.NoError(t, err)

	assert.Equal(t, int64(8), doc.CategoryID.Int64())
	assert.Equal(t, int64(3), doc.ParentID.Int64())
	assert.Empty(t, doc.Children)
	assert.Equal(t, []any{float64(8)}, store.lastArgs)
}

func TestClient_FetchProduct(t *testing.T) {
	store := newFakeStore(t)
	store.results[procProductInfo] = `{
		"product_id": "17", "sku": "HTC Touch Diamond", "type": "simple",
		"name": "HTC Touch Diamond", "description": "Diamond phone",
		"categories": ["8"], "websites": ["1"], "price": "750.0000"
	}`
	server := httptest.NewServer(store)
	defer server.Close()

	doc, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, server.URL), 17)
	require.NoError(t, err)

	assert.Equal(t, int64(17), doc.ProductID.Int64())
	assert.Equal(t, "simple", doc.Type)
	assert.Equal(t, "750", doc.ListPrice().String())
	assert.Equal(t, []int64{8}, doc.Categories.Int64s())
	assert.Equal(t, []string{"session-1"}, store.ended)
}

func TestClient_Errors(t *testing.T) {
	t.Run("remote fault is wrapped as fetch error", func(t *testing.T) {
		store := newFakeStore(t)
		store.faults[procProductInfo] = &RPCError{Code: FaultProductNotExists, Message: "Product not exists."}
		server := httptest.NewServer(store)
		defer server.Close()

		_, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, server.URL), 99)
		require.Error(t, err)
		assert.ErrorIs(t, err, magento.ErrRemoteFetch)
		assert.ErrorIs(t, err, ErrRequestFailed)

		var fetchErr *magento.RemoteFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, int64(99), fetchErr.MagentoID)

		var fault *RPCError
		require.ErrorAs(t, err, &fault)
		assert.True(t, fault.IsNotExists())

		// the session is ended even when the call fails
		assert.Equal(t, []string{"session-1"}, store.ended)
	})

	t.Run("rejected login", func(t *testing.T) {
		store := newFakeStore(t)
		server := httptest.NewServer(store)
		defer server.Close()

		instance := newTestInstance(t, server.URL)
		instance.APIKey = "wrong"

		_, err := newTestClient(t).FetchCategoryTree(context.Background(), instance)
		require.Error(t, err)
		assert.ErrorIs(t, err, magento.ErrRemoteFetch)
		assert.Contains(t, err.Error(), "login")
		assert.Empty(t, store.calls)
		assert.Empty(t, store.ended)
	})

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(t).FetchCategory(context.Background(), newTestInstance(t, server.URL), 8)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.ErrorIs(t, err, magento.ErrRemoteFetch)
	})

	t.Run("unreachable store", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, url), 17)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer server.Close()

		_, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, server.URL), 17)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("oversized body", func(t *testing.T) {
		store := newFakeStore(t)
		server := httptest.NewServer(store)
		defer server.Close()

		client, err := NewClient(&Config{MaxResponseBytes: 16, UserAgent: "x"}, nil)
		require.NoError(t, err)

		_, err = client.FetchProduct(context.Background(), newTestInstance(t, server.URL), 17)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("null result", func(t *testing.T) {
		store := newFakeStore(t)
		store.results[procProductInfo] = "null"
		server := httptest.NewServer(store)
		defer server.Close()

		_, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, server.URL), 17)
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("malformed document is a validation error", func(t *testing.T) {
		store := newFakeStore(t)
		store.results[procProductInfo] = `{"product_id": "abc"}`
		server := httptest.NewServer(store)
		defer server.Close()

		_, err := newTestClient(t).FetchProduct(context.Background(), newTestInstance(t, server.URL), 17)
		assert.ErrorIs(t, err, magento.ErrInvalidDocument)
		assert.False(t, errors.Is(err, magento.ErrRemoteFetch))
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := newFakeStore(t)
		server := httptest.NewServer(store)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(t).FetchProduct(ctx, newTestInstance(t, server.URL), 17)
		assert.ErrorIs(t, err, magento.ErrRemoteFetch)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWithoutField(t *testing.T) {
	out := withoutField(json.RawMessage(`{"a":1,"children":"2,3"}`), "children")
	assert.JSONEq(t, `{"a":1}`, string(out))

	unchanged := json.RawMessage(`[1,2]`)
	assert.Equal(t, unchanged, withoutField(unchanged, "children"))
}
