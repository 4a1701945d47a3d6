package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/designctl/internal/storage"
	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

func newTestServer(t *testing.T, store *storage.MemoryStore, token string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewHandler(store, HandlerOptions{Token: token}))
	t.Cleanup(server.Close)
	return server
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(nil)
	server := newTestServer(t, store, "")

	client, err := NewClient(ClientOptions{BaseURL: server.URL + "/"})
	require.NoError(t, err)

	_, found, err := client.GetItem(ctx, "acme/theme/primary")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.SetItem(ctx, "acme/theme/primary", "#ff0000"))
	assert.Equal(t, map[string]string{"acme/theme/primary": "#ff0000"}, store.Snapshot())

	value, found, err := client.GetItem(ctx, "acme/theme/primary")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "#ff0000", value)
}

func TestClientLateBoundToken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(map[string]string{"k": "v"})
	server := newTestServer(t, store, "secret")

	client, err := NewClient(ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	_, _, err = client.GetItem(ctx, "k")
	require.Error(t, err)
	var storageErr *derrors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "remote", storageErr.Backend)
	assert.Contains(t, err.Error(), "401")

	client.SetToken("secret")
	value, found, err := client.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)

	_, err = NewClient(ClientOptions{BaseURL: "ftp://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestHandlerRejectsInvalidBody(t *testing.T) {
	store := storage.NewMemoryStore(nil)
	handler := NewHandler(store, HandlerOptions{})

	req := httptest.NewRequest(http.MethodPut, "/v1/settings/k", strings.NewReader("nope"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.Snapshot())
}

func TestHandlerServesNestedKeys(t *testing.T) {
	store := storage.NewMemoryStore(map[string]string{"a/b/c": "x"})
	handler := NewHandler(store, HandlerOptions{})

	req := httptest.NewRequest(http.MethodGet, "/v1/settings/a/b/c", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key":"a/b/c","value":"x"}`, rec.Body.String())
}
