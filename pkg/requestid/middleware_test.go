package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplekit/peoplekit/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	capture := func() (http.Handler, *string) {
		var seen string
		h := requestid.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = requestid.FromContext(r.Context())
		}))
		return h, &seen
	}

	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		t.Parallel()

		h, seen := capture()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, *seen)
		_, err := uuid.Parse(*seen)
		assert.NoError(t, err)
		assert.Equal(t, *seen, rec.Header().Get(requestid.Header))
	})

	t.Run("keeps a well-formed client ID", func(t *testing.T) {
		t.Parallel()

		h, seen := capture()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "trace-abc_123")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "trace-abc_123", *seen)
	})

	t.Run("replaces malformed or oversized IDs", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"has spaces", "semi;colon", strings.Repeat("x", 200)} {
			h, seen := capture()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestid.Header, bad)
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, bad, *seen, "id %q", bad)
			_, err := uuid.Parse(*seen)
			assert.NoError(t, err)
		}
	})
}

func TestFromContextMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, requestid.FromContext(req.Context()))
}
