package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Run("posts body and headers", func(t *testing.T) {
		var gotMethod, gotHeader, gotBody string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotHeader = r.Header.Get("X-Test")

			data, _ := io.ReadAll(r.Body)
			gotBody = string(data)

			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		fn := Default(nil)

		resp, err := fn(context.Background(), Request{
			URL:    server.URL,
			Header: map[string]string{"X-Test": "yes"},
			Body:   []byte(`{"q":1}`),
		})

		require.NoError(t, err)
		require.Equal(t, http.MethodPost, gotMethod)
		require.Equal(t, "yes", gotHeader)
		require.Equal(t, `{"q":1}`, gotBody)
		require.Equal(t, http.StatusOK, resp.Status)

		var decoded struct {
			OK bool `json:"ok"`
		}

		require.NoError(t, resp.Decode(&decoded))
		require.True(t, decoded.OK)
	})

	t.Run("non-success status returns, not fails, by default", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		}))
		defer server.Close()

		fn := Default(nil)

		resp, err := fn(context.Background(), Request{URL: server.URL})

		require.NoError(t, err)
		require.Equal(t, http.StatusTooManyRequests, resp.Status)
		require.Equal(t, "slow down", string(resp.Body))
	})

	t.Run("ErrorOnStatus turns non-success into an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		fn := Default(nil)

		_, err := fn(context.Background(), Request{URL: server.URL, ErrorOnStatus: true})

		require.Error(t, err)
		require.Contains(t, err.Error(), "400")
	})
}
