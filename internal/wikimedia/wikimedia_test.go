package wikimedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchGenus(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch {
		case q.Get("list") == "search":
			calls = append(calls, "search")
			assert.Equal(t, "Lithops", q.Get("srsearch"))
			_, _ = w.Write([]byte(`{"query":{"search":[
				{"title":"File:Lithops karasmontana.jpg"},
				{"title":"File:Stones in the desert.jpg"},
				{"title":"File:LITHOPS lesliei.png"},
				{"title":"File:Lithops talk.ogg"}]}}`))
		case q.Get("prop") == "imageinfo":
			calls = append(calls, "imageinfo")
			assert.Equal(t, "File:Lithops karasmontana.jpg|File:LITHOPS lesliei.png|File:Lithops talk.ogg", q.Get("titles"))
			_, _ = w.Write([]byte(`{"query":{"pages":{
				"9":{"title":"File:LITHOPS lesliei.png","imageinfo":[{"url":"u2","thumburl":"t2","descriptionurl":"d2","width":10,"height":20,"mime":"image/png"}]},
				"3":{"title":"File:Lithops karasmontana.jpg","imageinfo":[{"url":"u1","thumburl":"t1","descriptionurl":"d1","mime":"image/jpeg"}]},
				"5":{"title":"File:Lithops talk.ogg","imageinfo":[{"url":"u3","mime":"audio/ogg"}]}}}}`))
		default:
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	}))
	defer srv.Close()

	imgs, err := New(srv.URL).SearchGenus(context.Background(), "Lithops", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "imageinfo"}, calls)
	require.Len(t, imgs, 2)
	assert.Equal(t, "File:Lithops karasmontana.jpg", imgs[0].Title)
	assert.Equal(t, "t1", imgs[0].ThumbnailURL)
	assert.Equal(t, "File:LITHOPS lesliei.png", imgs[1].Title)
	assert.Equal(t, 20, imgs[1].Height)
}

func TestSearchGenusNoMatches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"query":{"search":[{"title":"File:Something else.jpg"}]}}`))
	}))
	defer srv.Close()

	imgs, err := New(srv.URL).SearchGenus(context.Background(), "Ariocarpus", 5)
	require.NoError(t, err)
	assert.Empty(t, imgs)
	assert.Equal(t, 1, calls, "no second request without candidates")
}

func TestSearchGenusUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SearchGenus(context.Background(), "Aloe", 5)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "502"))
}
