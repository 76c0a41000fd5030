package reddit

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/letieu/reddit-profiler/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingJSON = `{"kind":"Listing","data":{"after":"t1_c","children":[
	{"kind":"t1","data":{"subreddit":"a","created_utc":1,"score":5,"body":"x","author":"someone"}},
	{"kind":"t1","data":{"subreddit":"b","created_utc":2.0,"score":-1,"body":"y"}},
	{"kind":"t1","data":{"subreddit":"a","created_utc":3,"score":0,"body":"z"}}
]}}`

type fakeReddit struct {
	server     *httptest.Server
	tokenHits  atomic.Int32
	listHits   atomic.Int32
	tokenCode  int
	tokenBody  string
	listCode   int
	listBody   string
	lastLimit  atomic.Value
	lastAuth   atomic.Value
	lastUA     atomic.Value
	lastBasic  atomic.Value
	lastGrant  atomic.Value
	lastUserIn atomic.Value
}

func newFakeReddit(t *testing.T, opts ...func(*fakeReddit)) *fakeReddit {
	t.Helper()
	f := &fakeReddit{
		tokenCode: http.StatusOK,
		tokenBody: `{"access_token":"tok-123","token_type":"bearer","expires_in":86400}`,
		listCode:  http.StatusOK,
		listBody:  listingJSON,
	}
	for _, opt := range opts {
		opt(f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		f.lastBasic.Store(r.Header.Get("Authorization"))
		f.lastUA.Store(r.Header.Get("User-Agent"))
		_ = r.ParseForm()
		f.lastGrant.Store(r.PostForm.Get("grant_type"))
		w.WriteHeader(f.tokenCode)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("GET /user/{username}/comments.json", func(w http.ResponseWriter, r *http.Request) {
		f.listHits.Add(1)
		f.lastLimit.Store(r.URL.Query().Get("limit"))
		f.lastAuth.Store(r.Header.Get("Authorization"))
		f.lastUserIn.Store(r.PathValue("username"))
		w.WriteHeader(f.listCode)
		_, _ = w.Write([]byte(f.listBody))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeReddit) config() config.Config {
	var cfg config.Config
	cfg.Reddit.ClientID = "client"
	cfg.Reddit.ClientSecret = "secret"
	cfg.Reddit.UserAgent = "test:profiler:v1"
	cfg.Reddit.TokenURL = f.server.URL + "/api/v1/access_token"
	cfg.Reddit.APIBaseURL = f.server.URL
	return cfg
}

func TestNewClient_MissingCredentials(t *testing.T) {
	f := newFakeReddit(t)

	for _, tc := range []struct {
		name  string
		clear func(*config.Config)
		want  string
	}{
		{"client id", func(c *config.Config) { c.Reddit.ClientID = "" }, "reddit.client_id"},
		{"client secret", func(c *config.Config) { c.Reddit.ClientSecret = "" }, "reddit.client_secret"},
		{"user agent", func(c *config.Config) { c.Reddit.UserAgent = "" }, "reddit.user_agent"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := f.config()
			tc.clear(&cfg)

			client, err := NewClient(cfg)
			assert.Nil(t, client)

			var cfgErr *config.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, []string{tc.want}, cfgErr.Missing)
		})
	}

	assert.Zero(t, f.tokenHits.Load())
	assert.Zero(t, f.listHits.Load())
}

func TestToken_ClientCredentialsGrant(t *testing.T) {
	f := newFakeReddit(t)
	client, err := NewClient(f.config())
	require.NoError(t, err)

	token, err := client.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "client_credentials", f.lastGrant.Load())
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("client:secret")), f.lastBasic.Load())
	assert.Equal(t, "test:profiler:v1", f.lastUA.Load())
}

func TestToken_NonSuccessStatus(t *testing.T) {
	f := newFakeReddit(t, func(f *fakeReddit) {
		f.tokenCode = http.StatusUnauthorized
		f.tokenBody = `{"message": "Unauthorized", "error": 401}`
	})
	client, err := NewClient(f.config())
	require.NoError(t, err)

	_, err = client.Token(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, authErr.Body, "Unauthorized")
	assert.Equal(t, int32(1), f.tokenHits.Load(), "no retry")
}

func TestToken_MissingAccessToken(t *testing.T) {
	f := newFakeReddit(t, func(f *fakeReddit) { f.tokenBody = `{"error":"invalid_grant"}` })
	client, err := NewClient(f.config())
	require.NoError(t, err)

	_, err = client.Token(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusOK, authErr.Status)
}

func TestUserComments_FlattensListingInOrder(t *testing.T) {
	f := newFakeReddit(t)
	client, err := NewClient(f.config())
	require.NoError(t, err)

	comments, err := client.UserComments(context.Background(), "tok-123", "spez", 3)
	require.NoError(t, err)

	assert.Equal(t, []Comment{
		{Subreddit: "a", CreatedUTC: 1, Score: 5, Body: "x"},
		{Subreddit: "b", CreatedUTC: 2, Score: -1, Body: "y"},
		{Subreddit: "a", CreatedUTC: 3, Score: 0, Body: "z"},
	}, comments)
	assert.Equal(t, "3", f.lastLimit.Load())
	assert.Equal(t, "Bearer tok-123", f.lastAuth.Load())
	assert.Equal(t, "spez", f.lastUserIn.Load())
}

func TestUserComments_CapsAtLimit(t *testing.T) {
	f := newFakeReddit(t)
	client, err := NewClient(f.config())
	require.NoError(t, err)

	comments, err := client.UserComments(context.Background(), "tok", "spez", 2)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "x", comments[0].Body)
	assert.Equal(t, "y", comments[1].Body)
}

func TestUserComments_EmptyListing(t *testing.T) {
	f := newFakeReddit(t, func(f *fakeReddit) { f.listBody = `{"data":{"children":[]}}` })
	client, err := NewClient(f.config())
	require.NoError(t, err)

	comments, err := client.UserComments(context.Background(), "tok", "spez", 10)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestUserComments_NonSuccessStatus(t *testing.T) {
	f := newFakeReddit(t, func(f *fakeReddit) {
		f.listCode = http.StatusNotFound
		f.listBody = `{"message": "Not Found", "error": 404}`
	})
	client, err := NewClient(f.config())
	require.NoError(t, err)

	_, err = client.UserComments(context.Background(), "tok", "ghost", 10)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.Status)
	assert.Equal(t, "ghost", fetchErr.Username)
	assert.Contains(t, fetchErr.Body, "Not Found")
}

func TestUserComments_ValidationBeforeNetwork(t *testing.T) {
	f := newFakeReddit(t)
	client, err := NewClient(f.config())
	require.NoError(t, err)

	for _, tc := range []struct {
		username string
		limit    int
		field    string
	}{
		{"spez", 0, "limit"},
		{"spez", -5, "limit"},
		{"", 10, "username"},
		{"bad name", 10, "username"},
		{"../admin", 10, "username"},
	} {
		_, err := client.UserComments(context.Background(), "tok", tc.username, tc.limit)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), "%q/%d", tc.username, tc.limit)
		assert.Equal(t, tc.field, vErr.Field)
	}

	assert.Zero(t, f.listHits.Load())
}

func TestExtractUsername(t *testing.T) {
	cases := map[string]string{
		"spez":                                 "spez",
		"  spez  ":                             "spez",
		"u/spez":                               "spez",
		"/u/spez":                              "spez",
		"https://www.reddit.com/user/spez/":    "spez",
		"https://old.reddit.com/u/Some_User-1": "Some_User-1",
		"reddit.com/USER/spez/comments":        "spez",
		"":                                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractUsername(in), in)
	}
}
