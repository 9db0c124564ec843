package notifyapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestsPath = "/tenants/local/installations/local/environments/local/source-systems/sales/source-entities/orders/manifests"

var testKey = domain.SourceKey{System: "sales", Entity: "orders"}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseURL:      server.URL + "/notify-api/",
		APIKey:       "key",
		APIKeySecret: "secret",
		Timeout:      5 * time.Second,
		Retry: RetrierOptions{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	return client, server
}

func TestDefaultClientOptions(t *testing.T) {
	opts := DefaultClientOptions()

	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.Retry.MaxRetries)
	assert.Empty(t, opts.BaseURL)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    ClientOptions
		field   string
		wantErr bool
	}{
		{
			name:    "missing base url",
			opts:    ClientOptions{APIKey: "k", APIKeySecret: "s"},
			field:   "api.base_url",
			wantErr: true,
		},
		{
			name:    "missing secret",
			opts:    ClientOptions{BaseURL: "https://example.com/notify-api", APIKey: "k"},
			field:   "api.api_key",
			wantErr: true,
		},
		{
			name: "valid with zero timeout",
			opts: ClientOptions{BaseURL: "https://example.com/notify-api/", APIKey: "k", APIKeySecret: "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *domain.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.field, cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/notify-api", client.baseURL)
			assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
		})
	}
}

func TestClient_URLs(t *testing.T) {
	client, err := NewClient(ClientOptions{BaseURL: "https://h/notify-api", APIKey: "k", APIKeySecret: "s"})
	require.NoError(t, err)

	key := domain.SourceKey{System: "my system", Entity: "a/b"}
	assert.Equal(t,
		"https://h/notify-api/tenants/local/installations/local/environments/local/source-systems/my%20system/source-entities/a%2Fb/manifests",
		client.manifestsURL(key))
	assert.True(t, strings.HasSuffix(client.manifestURL(key, "m-1"), "/manifests/m-1"))
}

func TestClient_Search(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/notify-api"+manifestsPath, r.URL.Path)
		assert.Equal(t, "OPEN", r.URL.Query().Get("state"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "adenotifier-go/"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_, _ = io.WriteString(w, `[
			{"id":"m-2","state":"OPEN","format":"CSV","created":"2023-09-15T10:00:00Z"},
			{"id":"m-1","state":"OPEN","format":"CSV","created":"2023-09-14T10:00:00Z"},
			{"id":"m-3","state":"OPEN","format":"CSV","created":"2023-09-15T10:00:00.000001"}
		]`)
	})

	records, err := client.Search(context.Background(), testKey, domain.StateOpen)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "m-1", records[0].ID)
	assert.Equal(t, "m-2", records[1].ID)
	assert.Equal(t, "m-3", records[2].ID)
	assert.Equal(t, domain.StateOpen, records[0].State)
}

func TestClient_Search_AnyState(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, `[]`)
	})

	records, err := client.Search(context.Background(), testKey, domain.StateAny)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_Create(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notify-api"+manifestsPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CSV", body["format"])
		assert.Equal(t, float64(7), body["batch"])
		assert.NotContains(t, body, "delim")
		assert.NotContains(t, body, "columns")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"m-9","state":"OPEN","format":"CSV","batch":7}`)
	})

	batch := 7
	record, err := client.Create(context.Background(), testKey, domain.CreateRequest{
		Parameters: domain.Parameters{Format: "CSV"},
		Batch:      &batch,
	})
	require.NoError(t, err)
	assert.Equal(t, "m-9", record.ID)
	assert.Equal(t, domain.StateOpen, record.State)
	require.NotNil(t, record.Batch)
	assert.Equal(t, 7, *record.Batch)
}

func TestClient_Create_MissingID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"state":"OPEN"}`)
	})

	_, err := client.Create(context.Background(), testKey, domain.CreateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manifest id")
}

func TestClient_GetAndEntries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notify-api" + manifestsPath + "/m-1":
			_, _ = io.WriteString(w, `{"id":"m-1","state":"OPEN","format":"CSV","delim":"SEMICOLON"}`)
		case "/notify-api" + manifestsPath + "/m-1/entries":
			_, _ = io.WriteString(w, `[{"sourceFile":"s3://b/a.csv","batch":1},{"sourceFile":"s3://b/b.csv"}]`)
		default:
			http.NotFound(w, r)
		}
	})

	record, err := client.Get(context.Background(), testKey, "m-1")
	require.NoError(t, err)
	require.NotNil(t, record.Delim)
	assert.Equal(t, "SEMICOLON", *record.Delim)

	entries, err := client.Entries(context.Background(), testKey, "m-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "s3://b/a.csv", entries[0].SourceFile)
	require.NotNil(t, entries[0].Batch)
	assert.Nil(t, entries[1].Batch)
}

func TestClient_MissingID(t *testing.T) {
	client, err := NewClient(ClientOptions{BaseURL: "https://h", APIKey: "k", APIKeySecret: "s"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Get(ctx, testKey, "")
	assert.ErrorIs(t, err, domain.ErrManifestIDMissing)
	_, err = client.Entries(ctx, testKey, "")
	assert.ErrorIs(t, err, domain.ErrManifestIDMissing)
	assert.ErrorIs(t, client.AddEntry(ctx, testKey, "", domain.Entry{}), domain.ErrManifestIDMissing)
	assert.ErrorIs(t, client.PutEntries(ctx, testKey, "", nil), domain.ErrManifestIDMissing)
	assert.ErrorIs(t, client.Notify(ctx, testKey, ""), domain.ErrManifestIDMissing)
}

func TestClient_AddEntry(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notify-api"+manifestsPath+"/m-1/entries", r.URL.Path)

		var entry map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&entry))
		assert.Equal(t, "s3://b/x.csv", entry["sourceFile"])
		assert.Equal(t, float64(20230915), entry["batch"])
		assert.Equal(t, float64(42), entry["contentLength"])

		w.WriteHeader(http.StatusCreated)
	})

	batch := 20230915
	length := int64(42)
	err := client.AddEntry(context.Background(), testKey, "m-1", domain.Entry{
		SourceFile:    "s3://b/x.csv",
		Batch:         &batch,
		ContentLength: &length,
	})
	require.NoError(t, err)
}

func TestClient_PutEntries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var entries []domain.Entry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "a", entries[0].SourceFile)
		assert.Equal(t, "b", entries[1].SourceFile)
	})

	err := client.PutEntries(context.Background(), testKey, "m-1", []domain.Entry{
		domain.NewEntry("a", nil),
		domain.NewEntry("b", nil),
	})
	require.NoError(t, err)
}

func TestClient_PutEntries_NilSendsEmptyArray(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "[]", string(body))
	})

	require.NoError(t, client.PutEntries(context.Background(), testKey, "m-1", nil))
}

func TestClient_Notify(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notify-api"+manifestsPath+"/m-1/notify", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
	})

	require.NoError(t, client.Notify(context.Background(), testKey, "m-1"))
}

func TestClient_ConflictOnWrite(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"manifest is NOTIFIED"}`)
	})

	err := client.AddEntry(context.Background(), testKey, "m-1", domain.NewEntry("x", nil))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, int32(1), calls.Load())

	var conflict *domain.ManifestConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "m-1", conflict.ManifestID)
	assert.Contains(t, err.Error(), "manifest is NOTIFIED")
}

func TestClient_BadRequestOnReadIsNotConflict(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Search(context.Background(), testKey, domain.StateOpen)
	require.Error(t, err)
	assert.False(t, domain.IsConflict(err))
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	records, err := client.Search(context.Background(), testKey, domain.StateOpen)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_AuthFailureExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "secret echoed back")
	})

	err := client.Notify(context.Background(), testKey, "m-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.NotContains(t, err.Error(), "secret")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NotFoundSentinel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such manifest", http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), testKey, "m-404")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "no such manifest")
}

func TestClient_InvalidJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := client.Get(context.Background(), testKey, "m-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://h/x", redact("https://h/x"))
	assert.Equal(t, "https://user:xxxxx@h/x", redact("https://user:pass@h/x"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
