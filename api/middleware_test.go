package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreybb/denima/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func corsRequest(t *testing.T, origins []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/products", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
	}
	rec := httptest.NewRecorder()
	CORS(origins)(noContent).ServeHTTP(rec, req)
	return rec
}

func TestCORSWildcardEchoesOriginWithCredentials(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			rec := corsRequest(t, []string{"*"}, method, "https://anywhere.example")
			assert.Equal(t, "https://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSAllowList(t *testing.T) {
	origins := []string{"https://shop.example"}

	rec := corsRequest(t, origins, http.MethodGet, "https://shop.example")
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = corsRequest(t, origins, http.MethodGet, "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovererRespondsWithJSON(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	Recoverer(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/offer", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, webutil.ContentTypeJSONUTF8, rec.Header().Get(webutil.HeaderContentType))
	assert.Equal(t, webutil.KindInternal, errorKind(t, rec))
}

func TestRecovererKeepsPartialResponse(t *testing.T) {
	partial := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	})
	rec := httptest.NewRecorder()
	Recoverer(partial).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	abort := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Recoverer(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
