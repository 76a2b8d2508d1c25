package shopware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-access-token"

// tokenHandler answers the oauth endpoint and counts requests.
func tokenHandler(t *testing.T, count *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*count++

		var grant map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&grant))
		assert.Equal(t, "client_credentials", grant["grant_type"])
		assert.Equal(t, "id", grant["client_id"])
		assert.Equal(t, "secret", grant["client_secret"])

		json.NewEncoder(w).Encode(map[string]string{"access_token": testToken})
	}
}

func searchResult(w http.ResponseWriter, ids ...string) {
	data := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]string{"id": id})
	}
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestClient_TokenFetchedOnceAndCached(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, &tokenRequests))
	mux.HandleFunc("/api/search/language", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		searchResult(w, "lang-1")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := c.SearchLanguageID(ctx, "de-DE")
		require.NoError(t, err)
		assert.Equal(t, "lang-1", id)
	}

	assert.Equal(t, 1, tokenRequests)
}

func TestClient_TokenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[]}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(server.URL, "id", "secret")
	_, err := c.SearchLanguageID(context.Background(), "de-DE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth token request failed (401)")
}

func TestClient_FindProductID(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, &tokenRequests))
	mux.HandleFunc("/api/search/product", func(w http.ResponseWriter, r *http.Request) {
		var search searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&search))
		require.Len(t, search.Filter, 1)
		assert.Equal(t, "productNumber", search.Filter[0].Field)

		if search.Filter[0].Value == "known-plugin" {
			searchResult(w, "prod-1")
			return
		}
		searchResult(w)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		id, err := c.FindProductID(ctx, "known-plugin")
		require.NoError(t, err)
		assert.Equal(t, "prod-1", id)
	})

	t.Run("not found returns empty", func(t *testing.T) {
		id, err := c.FindProductID(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestClient_PatchProductDescription(t *testing.T) {
	t.Run("language scoped", func(t *testing.T) {
		var gotLanguage string
		var payload map[string]string

		mux := http.NewServeMux()
		mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
		mux.HandleFunc("/api/product/prod-1", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			gotLanguage = r.Header.Get("sw-language-id")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusNoContent)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL, "id", "secret")
		err := c.PatchProductDescription(context.Background(), "prod-1", "<p>hi</p>", "lang-de")
		require.NoError(t, err)
		assert.Equal(t, "lang-de", gotLanguage)
		assert.Equal(t, "<p>hi</p>", payload["description"])
	})

	t.Run("default language omits header", func(t *testing.T) {
		var hasHeader bool

		mux := http.NewServeMux()
		mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
		mux.HandleFunc("/api/product/prod-1", func(w http.ResponseWriter, r *http.Request) {
			_, hasHeader = r.Header["Sw-Language-Id"]
			w.WriteHeader(http.StatusOK)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL, "id", "secret")
		require.NoError(t, c.PatchProductDescription(context.Background(), "prod-1", "<p>hi</p>", ""))
		assert.False(t, hasHeader)
	})

	t.Run("non-success status is fatal", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
		mux.HandleFunc("/api/product/prod-1", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		c := New(server.URL, "id", "secret")
		err := c.PatchProductDescription(context.Background(), "prod-1", "<p>hi</p>", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "product update failed (500)")
	})
}

// writeImage creates a small fake image file.
func writeImage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestClient_UploadMedia_ReusesExistingRecord(t *testing.T) {
	image := writeImage(t, t.TempDir(), "screenshot.png", "binary-data")

	var created, uploaded int
	var uploadQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/search/media", func(w http.ResponseWriter, r *http.Request) {
		var search searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&search))
		require.Len(t, search.Filter, 2)
		assert.Equal(t, "my-plugin__screenshot", search.Filter[0].Value)
		assert.Equal(t, "png", search.Filter[1].Value)
		searchResult(w, "media-existing")
	})
	mux.HandleFunc("/api/media", func(w http.ResponseWriter, _ *http.Request) {
		created++
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/_action/media/media-existing/upload", func(w http.ResponseWriter, r *http.Request) {
		uploaded++
		uploadQuery = r.URL.RawQuery
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	mediaID, err := c.UploadMedia(context.Background(), image, "my-plugin")
	require.NoError(t, err)

	// The existing record keeps its id; no new record is created and the
	// binary content is replaced.
	assert.Equal(t, "media-existing", mediaID)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, uploaded)
	assert.Contains(t, uploadQuery, "fileName=my-plugin__screenshot")
}

func TestClient_UploadMedia_CreatesNewRecord(t *testing.T) {
	image := writeImage(t, t.TempDir(), "banner.jpg", "jpeg-data")

	var createdID string
	var uploadedBody string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/search/media", func(w http.ResponseWriter, _ *http.Request) {
		searchResult(w)
	})
	mux.HandleFunc("/api/media", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		createdID = payload["id"]
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/_action/media/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploadedBody = string(body)
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	mediaID, err := c.UploadMedia(context.Background(), image, "my-plugin")
	require.NoError(t, err)

	assert.Len(t, mediaID, 32)
	assert.Equal(t, createdID, mediaID)
	assert.Equal(t, "jpeg-data", uploadedBody)
}

func TestClient_UploadMedia_DuplicateNameRetry(t *testing.T) {
	image := writeImage(t, t.TempDir(), "logo.png", "png-data")

	var uploadNames []string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/search/media", func(w http.ResponseWriter, _ *http.Request) {
		searchResult(w)
	})
	mux.HandleFunc("/api/media", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/_action/media/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("fileName")
		uploadNames = append(uploadNames, name)
		if len(uploadNames) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"code":"CONTENT__MEDIA_DUPLICATED_FILE_NAME"}]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	mediaID, err := c.UploadMedia(context.Background(), image, "my-plugin")
	require.NoError(t, err)

	// Exactly one retry, under a name disambiguated by the id prefix.
	require.Len(t, uploadNames, 2)
	assert.Equal(t, "my-plugin__logo", uploadNames[0])
	assert.Equal(t, "my-plugin__logo-"+mediaID[:8], uploadNames[1])
}

func TestClient_UploadMedia_RetryFailureIsFatal(t *testing.T) {
	image := writeImage(t, t.TempDir(), "logo.png", "png-data")

	uploads := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/search/media", func(w http.ResponseWriter, _ *http.Request) {
		searchResult(w)
	})
	mux.HandleFunc("/api/media", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/_action/media/", func(w http.ResponseWriter, _ *http.Request) {
		uploads++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"errors":[{"code":"CONTENT__MEDIA_DUPLICATED_FILE_NAME"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	_, err := c.UploadMedia(context.Background(), image, "my-plugin")
	require.Error(t, err)
	assert.Equal(t, 2, uploads)
}

func TestClient_UploadMedia_EmptyFile(t *testing.T) {
	image := writeImage(t, t.TempDir(), "empty.png", "")

	c := New("http://unused.invalid", "id", "secret")
	_, err := c.UploadMedia(context.Background(), image, "my-plugin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestClient_SetProductMedia(t *testing.T) {
	var payload struct {
		Media   []ProductMedia `json:"media"`
		CoverID string         `json:"coverId"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/product/prod-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	media := []ProductMedia{
		{MediaID: "m1", Position: 1},
		{MediaID: "m2", Position: 2},
	}
	require.NoError(t, c.SetProductMedia(context.Background(), "prod-1", media, "m2"))

	assert.Equal(t, media, payload.Media)
	assert.Equal(t, "m2", payload.CoverID)
}

func TestClient_SetProductMedia_NoCover(t *testing.T) {
	var raw map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", tokenHandler(t, new(int)))
	mux.HandleFunc("/api/product/prod-1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, "id", "secret")
	require.NoError(t, c.SetProductMedia(context.Background(), "prod-1", []ProductMedia{{MediaID: "m1", Position: 1}}, ""))

	_, hasCover := raw["coverId"]
	assert.False(t, hasCover)
}
