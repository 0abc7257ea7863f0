package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/services"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type RouterSuite struct {
	suite.Suite
	router http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	cfg := config.Override(config.AppConfig{
		JWTSecret:          "test-secret",
		RateLimitPerMinute: 10000,
		LogLevel:           "silent",
		GinMode:            "test",
		Timezone:           "UTC",
		MetricsEnabled:     true,
		DBDriver:           "sqlite",
		DatabaseURI:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	db, err := config.OpenDatabase(cfg)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = config.CloseDatabase(db) })
	s.Require().NoError(models.AutoMigrate(db))
	s.router = SetupRouter(services.New(db, cfg))
}

func (s *RouterSuite) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func registration(username string) map[string]string {
	return map[string]string{
		"username":  username,
		"password":  "secret-" + username,
		"firstName": "F" + username,
		"lastName":  "L" + username,
		"email":     username + "@example.com",
		"phone":     "555-" + username,
	}
}

func (s *RouterSuite) register(username string) {
	w, _ := s.do(http.MethodPost, "/api/auth/register", registration(username), "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *RouterSuite) login(username string) string {
	w, env := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": "secret-" + username,
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotEmpty(data.Token)
	return data.Token
}

func (s *RouterSuite) createBlog(token string, tags any) (int, uint64) {
	w, env := s.do(http.MethodPost, "/api/blog/create", map[string]any{
		"subject":     "Hi",
		"description": "World",
		"tags":        tags,
	}, token)
	var data struct {
		BlogID uint64 `json:"blog_id"`
	}
	if w.Code == http.StatusCreated {
		s.Require().NoError(json.Unmarshal(env.Data, &data))
	}
	return w.Code, data.BlogID
}

func (s *RouterSuite) TestRegisterAndLogin() {
	w, env := s.do(http.MethodPost, "/api/auth/register", registration("alice"), "")
	s.Equal(http.StatusCreated, w.Code)
	s.JSONEq(`{"username":"alice"}`, string(env.Data))

	w, env = s.do(http.MethodPost, "/api/auth/register", registration("alice"), "")
	s.Equal(http.StatusConflict, w.Code)
	var conflict struct {
		Conflicts []services.FieldError `json:"conflicts"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &conflict))
	s.Require().NotEmpty(conflict.Conflicts)
	s.Equal("username", conflict.Conflicts[0].Field)

	w, env = s.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "zed"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	var invalid struct {
		Errors []services.FieldError `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &invalid))
	s.Len(invalid.Errors, 5)

	w, _ = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "nope"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nobody", "password": "nope"}, "")
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/login", map[string]string{}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret-alice"}, "")
	s.Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	s.Equal(config.Get().CookieName, cookies[0].Name)
	s.True(cookies[0].HttpOnly)
}

func (s *RouterSuite) TestSessionCookieAndLogout() {
	s.register("alice")
	w, _ := s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret-alice"}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"alice"`)
	s.NotContains(rec.Body.String(), "password")

	token := s.login("alice")
	w, _ = s.do(http.MethodGet, "/api/auth/logout", nil, token)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/auth/me", nil, token)
	s.Equal(http.StatusUnauthorized, w.Code)

	// logout without a session still succeeds
	w, _ = s.do(http.MethodGet, "/api/auth/logout", nil, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestDailyBlogCap() {
	s.register("alice")
	token := s.login("alice")

	code, _ := s.createBlog("", []string{"x"})
	s.Equal(http.StatusUnauthorized, code)

	code, id1 := s.createBlog(token, []string{"x"})
	s.Equal(http.StatusCreated, code)
	code, id2 := s.createBlog(token, "x, y")
	s.Equal(http.StatusCreated, code)
	s.NotEqual(id1, id2)

	code, _ = s.createBlog(token, []string{"x"})
	s.Equal(http.StatusTooManyRequests, code)

	w, env := s.do(http.MethodGet, "/api/blog/my-blogs", nil, token)
	s.Equal(http.StatusOK, w.Code)
	var mine struct {
		Count int `json:"count"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &mine))
	s.Equal(2, mine.Count)
}

func (s *RouterSuite) TestCreateBlogValidation() {
	s.register("alice")
	token := s.login("alice")

	w, env := s.do(http.MethodPost, "/api/blog/create", map[string]any{"subject": "", "tags": []string{}}, token)
	s.Equal(http.StatusBadRequest, w.Code)
	var invalid struct {
		Errors []services.FieldError `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &invalid))
	s.Len(invalid.Errors, 3)

	w, _ = s.do(http.MethodPost, "/api/blog/create", map[string]any{"subject": "s", "description": "d", "tags": 7}, token)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCommentRules() {
	s.register("alice")
	s.register("bob")
	alice := s.login("alice")
	bob := s.login("bob")
	_, blogID := s.createBlog(alice, []string{"x"})
	path := fmt.Sprintf("/api/blog/%d/comment", blogID)

	w, _ := s.do(http.MethodPost, path, map[string]string{"sentiment": "Positive", "description": "great"}, bob)
	s.Equal(http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, path, map[string]string{"sentiment": "Positive", "description": "again"}, bob)
	s.Equal(http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, path, map[string]string{"sentiment": "Positive", "description": "mine"}, alice)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/blog/999/comment", map[string]string{"sentiment": "Positive", "description": "?"}, bob)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, path, map[string]string{"sentiment": "meh", "description": "?"}, bob)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, path, map[string]string{"sentiment": "Positive", "description": "anon"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/blog/%d", blogID), nil, "")
	s.Equal(http.StatusOK, w.Code)
	var detail struct {
		Blog struct {
			ID   uint64   `json:"blog_id"`
			Tags []string `json:"tags"`
		} `json:"blog"`
		Comments []struct {
			Username  string `json:"username"`
			Sentiment string `json:"sentiment"`
		} `json:"comments"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &detail))
	s.Equal(blogID, detail.Blog.ID)
	s.Equal([]string{"x"}, detail.Blog.Tags)
	s.Require().Len(detail.Comments, 1)
	s.Equal("bob", detail.Comments[0].Username)
	s.Equal("Positive", detail.Comments[0].Sentiment)
}

func (s *RouterSuite) TestBlogLookupErrors() {
	w, _ := s.do(http.MethodGet, "/api/blog/not-a-number", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodGet, "/api/blog/12345", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/blog/recent?limit=abc", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestSearch() {
	s.register("alice")
	token := s.login("alice")
	s.createBlog(token, []string{"Technology"})
	s.createBlog(token, []string{"food"})

	for _, tc := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/blog/search?tag=tech", nil},
		{http.MethodPost, "/api/blog/search", map[string]string{"tag": "tech"}},
	} {
		w, env := s.do(tc.method, tc.path, tc.body, "")
		s.Equal(http.StatusOK, w.Code)
		var res struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &res))
		s.Equal("tech", res.Tag)
		s.Equal(1, res.Count)
	}

	s.register("bob")
	code, _ := s.createBlog(s.login("bob"), []string{"R&D"})
	s.Require().Equal(http.StatusCreated, code)
	w, env := s.do(http.MethodGet, "/api/blog/search?tag="+url.QueryEscape("R&D"), nil, "")
	s.Equal(http.StatusOK, w.Code)
	var found struct {
		Blogs []struct {
			Tags []string `json:"tags"`
		} `json:"blogs"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &found))
	s.Require().Len(found.Blogs, 1)
	s.Equal([]string{"R&D"}, found.Blogs[0].Tags)

	w, _ = s.do(http.MethodGet, "/api/blog/search", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestQueriesAndFollows() {
	for _, u := range []string{"alice", "bob", "carol"} {
		s.register(u)
	}
	alice := s.login("alice")
	bob := s.login("bob")
	s.createBlog(alice, []string{"x"})
	s.createBlog(bob, []string{"y"})

	w, env := s.do(http.MethodPost, "/api/blog/query4", nil, "")
	s.Equal(http.StatusOK, w.Code)
	var users struct {
		Users []models.UserSummary `json:"users"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &users))
	s.Require().Len(users.Users, 1)
	s.Equal("carol", users.Users[0].Username)
	s.Equal("Fcarol", users.Users[0].FirstName)

	w, _ = s.do(http.MethodPost, "/api/user/follow/carol", nil, alice)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/user/follow/carol", nil, bob)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/user/follow/ghost", nil, bob)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodPost, "/api/user/follow/carol", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodPost, "/api/blog/query3", map[string]string{"userX": "alice", "userY": "bob"}, "")
	s.Equal(http.StatusOK, w.Code)
	var both struct {
		UserX string               `json:"userX"`
		Users []models.UserSummary `json:"users"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &both))
	s.Equal("alice", both.UserX)
	s.Require().Len(both.Users, 1)
	s.Equal("carol", both.Users[0].Username)

	w, _ = s.do(http.MethodPost, "/api/blog/query3", map[string]string{"userX": "alice", "userY": "alice"}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/api/user/carol/followers", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &users))
	s.Len(users.Users, 2)

	w, _ = s.do(http.MethodDelete, "/api/user/follow/carol", nil, alice)
	s.Equal(http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, "/api/user/alice/following", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &users))
	s.Empty(users.Users)

	w, env = s.do(http.MethodPost, "/api/blog/query2", nil, "")
	s.Equal(http.StatusOK, w.Code)
	var most struct {
		Date  string               `json:"date"`
		Users []models.UserSummary `json:"users"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &most))
	s.NotEmpty(most.Date)
	s.Len(most.Users, 2)

	for _, q := range []string{"query1", "query5"} {
		w, _ = s.do(http.MethodPost, "/api/blog/"+q, nil, "")
		s.Equal(http.StatusBadRequest, w.Code, q)
	}
	for _, q := range []string{"query6", "query7"} {
		w, _ = s.do(http.MethodPost, "/api/blog/"+q, nil, "")
		s.Equal(http.StatusOK, w.Code, q)
	}
}

func (s *RouterSuite) TestOperationalEndpoints() {
	w, _ := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	w, _ = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "http_request_duration_seconds")

	w, env := s.do(http.MethodGet, "/api/nope", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(40400, env.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	config.Override(config.AppConfig{JWTSecret: "test-secret", LogLevel: "silent", GinMode: "test", DBDriver: "sqlite"})
	r := SetupRouter(services.New(nil, config.Get()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
