package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	appsvc "boardgame-meetup/internal/app"
	"boardgame-meetup/internal/model"
	objectstore "boardgame-meetup/internal/platform/minio"
	"boardgame-meetup/internal/repository"
	"boardgame-meetup/internal/transport/http/handler"
	"boardgame-meetup/internal/transport/http/response"
)

const testSecret = "router-test-secret"

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return errors.New("duplicate username")
		}
	}
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, *user)
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

type memListings struct {
	mu       sync.Mutex
	listings map[string]model.Listing
}

func (m *memListings) Insert(_ context.Context, listing *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing.ID = primitive.NewObjectID()
	m.listings[listing.ID.Hex()] = *listing
	return nil
}

func (m *memListings) List(_ context.Context) ([]model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	return out, nil
}

func (m *memListings) GetByID(_ context.Context, id string) (*model.Listing, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memListings) DeleteByIDAndOwner(_ context.Context, id string, ownerID uint) (int64, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return 0, repository.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok || l.OwnerID != ownerID {
		return 0, nil
	}
	delete(m.listings, id)
	return 1, nil
}

type memObjects struct {
	objects map[string]appsvc.AvatarObject
}

func (m *memObjects) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = appsvc.AvatarObject{Data: data, ContentType: contentType}
	return nil
}

func (m *memObjects) Download(_ context.Context, key string) ([]byte, string, error) {
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", objectstore.ErrObjectNotFound
	}
	return obj.Data, obj.ContentType, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Detail  string          `json:"detail"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authService := appsvc.NewAuthService(&memUsers{}, testSecret, 72*time.Hour, bcrypt.MinCost)
	listingService := appsvc.NewListingService(&memListings{listings: map[string]model.Listing{}}, nil, nil, nil)
	avatarService := appsvc.NewAvatarService(&memObjects{objects: map[string]appsvc.AvatarObject{}}, 1<<10)

	RegisterRoutes(router, testSecret, Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Listings: handler.NewListingHandler(listingService),
		Avatars:  handler.NewAvatarHandler(avatarService),
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	status, _ := doJSON(t, router, nethttp.MethodPost, "/users/register", "", gin.H{
		"email": username + "@example.com", "username": username, "password": "12345678",
	})
	if status != nethttp.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	status, env := doJSON(t, router, nethttp.MethodPost, "/users/login", "", gin.H{
		"username": username, "password": "12345678",
	})
	if status != nethttp.StatusOK {
		t.Fatalf("login %s: status %d", username, status)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login %s: no token in %s", username, env.Data)
	}
	return data.Token
}

func TestAuthScenario(t *testing.T) {
	router := newTestRouter(t)

	status, _ := doJSON(t, router, nethttp.MethodPost, "/users/register", "", gin.H{
		"email": "a@b.com", "username": "didi", "password": "12345678",
	})
	if status != nethttp.StatusCreated {
		t.Fatalf("register status = %d, want 201", status)
	}

	status, env := doJSON(t, router, nethttp.MethodPost, "/users/register", "", gin.H{
		"email": "c@d.com", "username": "didi", "password": "87654321",
	})
	if status != nethttp.StatusConflict || env.Code != response.CodeRegistrationConflict {
		t.Errorf("duplicate register = %d/%d, want 409", status, env.Code)
	}

	status, env = doJSON(t, router, nethttp.MethodPost, "/users/register", "", gin.H{
		"email": "e@f.com", "username": "luigi", "password": strings.Repeat("é", 72),
	})
	if status != nethttp.StatusBadRequest || env.Code != response.CodeBadRequest {
		t.Errorf("72 rune multibyte password = %d/%d, want 400/%d", status, env.Code, response.CodeBadRequest)
	}

	status, env = doJSON(t, router, nethttp.MethodPost, "/users/register", "", gin.H{
		"email": "not-an-email", "username": "peach", "password": "12345678",
	})
	if status != nethttp.StatusBadRequest || env.Code != response.CodeBadRequest {
		t.Errorf("malformed email = %d/%d, want 400/%d", status, env.Code, response.CodeBadRequest)
	}

	status, env = doJSON(t, router, nethttp.MethodPost, "/users/login", "", gin.H{"username": "didi", "password": "12345678"})
	if status != nethttp.StatusOK || len(env.Data) == 0 {
		t.Errorf("login = %d, want 200 with token", status)
	}

	status, env = doJSON(t, router, nethttp.MethodPost, "/users/login", "", gin.H{"username": "didi", "password": "wrong"})
	if status != nethttp.StatusUnauthorized || env.Code != response.CodeWrongPassword {
		t.Errorf("wrong password = %d/%d, want 401/%d", status, env.Code, response.CodeWrongPassword)
	}

	status, env = doJSON(t, router, nethttp.MethodPost, "/users/login", "", gin.H{"username": "ghost", "password": "x"})
	if status != nethttp.StatusUnauthorized || env.Code != response.CodeUserNotFound {
		t.Errorf("unknown user = %d/%d, want 401/%d", status, env.Code, response.CodeUserNotFound)
	}
	if env.Status != nethttp.StatusUnauthorized || env.Detail == "" {
		t.Errorf("error payload = %+v, want status and detail", env)
	}
}

func TestListingLifecycle(t *testing.T) {
	router := newTestRouter(t)
	owner := registerAndLogin(t, router, "didi")
	other := registerAndLogin(t, router, "mario")

	newGame := gin.H{
		"game": "Azul", "avatar": "avatars/1/azul.png", "date": "2026-11-20",
		"hour": "18:30", "bio": "Tile drafting", "open_seats": 2,
	}

	status, _ := doJSON(t, router, nethttp.MethodPost, "/games/create", "", newGame)
	if status != nethttp.StatusUnauthorized {
		t.Errorf("create without token = %d, want 401", status)
	}

	status, env := doJSON(t, router, nethttp.MethodPost, "/games/create", owner, newGame)
	if status != nethttp.StatusCreated {
		t.Fatalf("create = %d (%s), want 201", status, env.Detail)
	}
	var created model.Listing
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.OwnerID != 1 || created.OpenSeats != 2 || created.Hour != "18:30" {
		t.Errorf("created = %+v", created)
	}

	status, env = doJSON(t, router, nethttp.MethodGet, "/games/"+created.ID.Hex(), "", nil)
	if status != nethttp.StatusOK {
		t.Fatalf("get = %d, want 200", status)
	}
	var fetched struct {
		Game model.Listing `json:"game"`
	}
	if err := json.Unmarshal(env.Data, &fetched); err != nil {
		t.Fatal(err)
	}
	if fetched.Game != created {
		t.Errorf("fetched = %+v, want %+v", fetched.Game, created)
	}

	status, env = doJSON(t, router, nethttp.MethodGet, "/games", "", nil)
	var listed struct {
		Games []model.Listing `json:"games"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil || status != nethttp.StatusOK || len(listed.Games) != 1 {
		t.Errorf("list = %d with %d games, want 200 with 1", status, len(listed.Games))
	}

	// A non-owner delete answers 200 like a real delete and leaves the record in place.
	status, env = doJSON(t, router, nethttp.MethodDelete, "/games/delete/"+created.ID.Hex(), other, nil)
	if status != nethttp.StatusOK || string(env.Data) != `{"deleted":false,"message":"Game deleted"}` {
		t.Errorf("foreign delete = %d %s", status, env.Data)
	}
	if status, _ := doJSON(t, router, nethttp.MethodGet, "/games/"+created.ID.Hex(), "", nil); status != nethttp.StatusOK {
		t.Errorf("get after foreign delete = %d, want 200", status)
	}

	status, env = doJSON(t, router, nethttp.MethodDelete, "/games/delete/"+created.ID.Hex(), owner, nil)
	if status != nethttp.StatusOK || string(env.Data) != `{"deleted":true,"message":"Game deleted"}` {
		t.Errorf("owner delete = %d %s", status, env.Data)
	}

	status, env = doJSON(t, router, nethttp.MethodGet, "/games/"+created.ID.Hex(), "", nil)
	if status != nethttp.StatusBadRequest || env.Code != response.CodeListingNotFound {
		t.Errorf("get after delete = %d/%d, want 400/%d", status, env.Code, response.CodeListingNotFound)
	}
	if status, _ := doJSON(t, router, nethttp.MethodGet, "/games/not-an-id", "", nil); status != nethttp.StatusBadRequest {
		t.Errorf("get malformed id = %d, want 400", status)
	}
}

func TestCreateListingValidation(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "didi")

	status, env := doJSON(t, router, nethttp.MethodPost, "/games/create", token, gin.H{
		"game": "Azul", "avatar": "a", "date": "tomorrow", "hour": "18:30", "bio": "b", "open_seats": 0,
	})
	if status != nethttp.StatusBadRequest || env.Code != response.CodeInvalidListing {
		t.Errorf("bad date = %d/%d, want 400/%d", status, env.Code, response.CodeInvalidListing)
	}

	status, _ = doJSON(t, router, nethttp.MethodPost, "/games/create", token, gin.H{
		"game": "Azul", "avatar": "a", "date": "2026-11-20", "hour": "18:30", "bio": "b",
	})
	if status != nethttp.StatusBadRequest {
		t.Errorf("missing open_seats = %d, want 400", status)
	}
}

func TestAvatarUploadAndDownload(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "didi")
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	avatar := encoded.Bytes()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("avatar", "azul.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(avatar); err != nil {
		t.Fatal(err)
	}
	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(nethttp.MethodPost, "/avatars", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("upload = %d %s, want 201", rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	var data struct {
		Avatar string `json:"avatar"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/avatars/"+data.Avatar, nil))
	if rec.Code != nethttp.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("download = %d %q, want 200 image/png", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), avatar) {
		t.Error("downloaded bytes differ from upload")
	}
}
