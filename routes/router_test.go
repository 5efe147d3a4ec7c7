package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type RouterSuite struct {
	suite.Suite
	db      *gorm.DB
	storage *utils.Storage
	router  *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	utils.PasswordCost = bcrypt.MinCost
}

func (s *RouterSuite) SetupTest() {
	dir := s.T().TempDir()
	cfg := config.AppConfig{
		JWTSecret:          "router-test-secret",
		SiteTitle:          "Test Blog",
		GinMode:            "test",
		GinPath:            filepath.Join(dir, "gin.log"),
		RateLimitPerMinute: 1000,
		MediaRoot:          filepath.Join(dir, "media"),
		AdminUsernames:     []string{"admin"},
	}
	config.Set(cfg)
	cfg = config.Get()

	db, err := config.OpenDatabase(config.AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:", LogLevel: "silent"}, log.New(io.Discard, "", 0))
	s.Require().NoError(err)
	s.Require().NoError(config.Migrate(db, models.All()...))
	s.db = db

	s.Require().NoError(os.MkdirAll(cfg.MediaRoot, 0o755))
	s.storage = utils.NewStorage(cfg.MediaRoot, cfg.MediaURL, 1<<20, 200, 200)

	s.router, err = SetupRouter(db, s.storage, cfg)
	s.Require().NoError(err)
}

func (s *RouterSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		s.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *RouterSuite) register(username string) (string, uint) {
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	s.decode(w, &out)
	return out.Token, out.User.ID
}

func (s *RouterSuite) createPost(token string, body gin.H) uint {
	w := s.do(http.MethodPost, "/api/v1/posts", token, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Post struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	s.decode(w, &out)
	return out.Post.ID
}

func (s *RouterSuite) TestLandingShowsThreeNewestPosts() {
	token, _ := s.register("writer")
	for i := 1; i <= 4; i++ {
		s.createPost(token, gin.H{"title": fmt.Sprintf("Post number %d", i), "content": "body"})
	}

	w := s.do(http.MethodGet, "/", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	html := w.Body.String()
	s.NotContains(html, "Post number 1")
	i4 := strings.Index(html, "Post number 4")
	i3 := strings.Index(html, "Post number 3")
	i2 := strings.Index(html, "Post number 2")
	s.True(i4 >= 0 && i3 > i4 && i2 > i3, "newest first")
	s.Contains(html, `href="/blog/4"`)
}

func (s *RouterSuite) TestLandingWithoutPosts() {
	w := s.do(http.MethodGet, "/", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "No posts yet.")
}

func (s *RouterSuite) TestAboutPage() {
	w := s.do(http.MethodGet, "/about_me", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "About Me")
	s.Contains(w.Body.String(), "Test Blog")
}

func (s *RouterSuite) TestUnknownRoutes() {
	w := s.do(http.MethodGet, "/nowhere", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "does not exist")

	w = s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(40400, s.decode(w, nil).Code)

	w = s.do(http.MethodGet, "/blog/999", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"ok"`)
}

func (s *RouterSuite) TestPostDetailWithTaxonomyAndComments() {
	adminToken, _ := s.register("admin")
	w := s.do(http.MethodPost, "/api/v1/categories", adminToken, gin.H{"name": "Programming"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	id := s.createPost(adminToken, gin.H{
		"title":    "Hello Go",
		"content":  "# Heading\n\n<script>alert(1)</script>",
		"category": "programming",
		"tags":     []string{"golang", "한글"},
	})

	readerToken, _ := s.register("reader")
	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", id), readerToken, gin.H{"content": "Nice post"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/blog/%d", id), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	html := w.Body.String()
	s.Contains(html, "<h1>Hello Go</h1>")
	s.Contains(html, "Heading</h1>")
	s.NotContains(html, "<script>")
	s.Contains(html, `href="/blog/category/programming"`)
	s.Contains(html, "#golang")
	s.Contains(html, "Nice post")
	s.Contains(html, "Programming (1)")

	w = s.do(http.MethodGet, "/blog/tag/golang", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Hello Go")

	w = s.do(http.MethodGet, "/blog/category/no_category", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "Hello Go</a></h2>")

	w = s.do(http.MethodGet, "/api/v1/posts?tag=golang", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	s.decode(w, &list)
	s.Require().Len(list.Items, 1)
	s.Equal("Hello Go", list.Items[0].Title)

	w = s.do(http.MethodGet, "/api/v1/posts?tag=missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestCommentTextEscapedOnce() {
	token, _ := s.register("commenter")
	id := s.createPost(token, gin.H{"title": "Cartoons", "content": "text"})

	w := s.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", id), token, gin.H{"content": "  Tom & Jerry, 1 < 2 "})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Comment struct {
			Content string `json:"content"`
		} `json:"comment"`
	}
	s.decode(w, &out)
	s.Equal("Tom & Jerry, 1 < 2", out.Comment.Content)

	w = s.do(http.MethodGet, fmt.Sprintf("/blog/%d", id), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	html := w.Body.String()
	s.Contains(html, "Tom &amp; Jerry, 1 &lt; 2")
	s.NotContains(html, "&amp;amp;")
	s.NotContains(html, "&amp;lt;")
}

func (s *RouterSuite) TestDeletedUserCannotWrite() {
	adminToken, _ := s.register("admin")
	id := s.createPost(adminToken, gin.H{"title": "Open thread", "content": "text"})
	victimToken, victimID := s.register("victim")

	w := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", victimID), adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", id), victimToken, gin.H{"content": "still here"})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(40120, s.decode(w, nil).Code)

	w = s.do(http.MethodPost, "/api/v1/posts", victimToken, gin.H{"title": "ghost", "content": "text"})
	s.Equal(http.StatusUnauthorized, w.Code)

	var n int64
	s.Require().NoError(s.db.Model(&models.Comment{}).Where("author_id = ?", victimID).Count(&n).Error)
	s.Zero(n)
	s.Require().NoError(s.db.Model(&models.Post{}).Where("author_id = ?", victimID).Count(&n).Error)
	s.Zero(n)
}

func (s *RouterSuite) TestPostPermissions() {
	ownerToken, _ := s.register("owner")
	otherToken, _ := s.register("other")
	adminToken, _ := s.register("admin")
	id := s.createPost(ownerToken, gin.H{"title": "Mine", "content": "text"})
	path := fmt.Sprintf("/api/v1/posts/%d", id)

	w := s.do(http.MethodPost, "/api/v1/posts", "", gin.H{"title": "x", "content": "y"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPut, path, otherToken, gin.H{"title": "Stolen", "content": "text"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, path, ownerToken, gin.H{"title": "Mine, edited", "content": "text"})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, path, otherToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, path, adminToken, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestAdminRoutes() {
	userToken, _ := s.register("someone")
	w := s.do(http.MethodPost, "/api/v1/tags", userToken, gin.H{"name": "go"})
	s.Equal(http.StatusForbidden, w.Code)

	adminToken, _ := s.register("admin")
	w = s.do(http.MethodPost, "/api/v1/tags", adminToken, gin.H{"name": "go"})
	s.Equal(http.StatusCreated, w.Code)
	w = s.do(http.MethodPost, "/api/v1/tags", adminToken, gin.H{"name": "go"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/tags", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"/blog/tag/go"`)
}

func (s *RouterSuite) TestLogoutRevokesToken() {
	token, _ := s.register("leaving")
	w := s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(40104, s.decode(w, nil).Code)
}

func (s *RouterSuite) TestLogin() {
	s.register("login_user")
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "login_user", "password": "password123"})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "login_user", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestUploadThenAttach() {
	token, userID := s.register("uploader")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	s.Require().NoError(err)
	_, err = part.Write([]byte("hello"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload?kind=files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	s.decode(w, &out)
	s.True(strings.HasPrefix(out.Name, "blog/files/"), out.Name)
	s.FileExists(s.storage.Path(out.Name))

	var record models.UploadedFile
	s.Require().NoError(s.db.Where("name = ?", out.Name).First(&record).Error)
	s.Equal(userID, record.UserID)
	s.NotNil(record.ExpireAt)

	id := s.createPost(token, gin.H{"title": "With file", "content": "see attachment", "file_upload": out.Name})
	var claimed models.UploadedFile
	s.Require().NoError(s.db.Where("name = ?", out.Name).First(&claimed).Error)
	s.Nil(claimed.ExpireAt)

	w = s.do(http.MethodGet, fmt.Sprintf("/blog/%d", id), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Download notes.txt")
	s.Contains(w.Body.String(), "fa-file-alt")

	w = s.do(http.MethodGet, out.URL, "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("hello", w.Body.String())
}

func (s *RouterSuite) TestStats() {
	token, _ := s.register("counter")
	s.createPost(token, gin.H{"title": "Counted", "content": "text"})
	s.do(http.MethodGet, "/", "", nil)

	w := s.do(http.MethodGet, "/api/v1/stats", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats map[string]int64
	s.decode(w, &stats)
	s.EqualValues(1, stats["post_count"])
	s.EqualValues(1, stats["user_count"])
}
