package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskmanager/internal/app"
	"taskmanager/internal/config"
	"taskmanager/internal/database"
	"taskmanager/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupApp builds the full application on a private in-memory SQLite database.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open("sqlite", dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:      "test_jwt_secret",
		BcryptCost:     bcrypt.MinCost,
		AvatarMaxBytes: 1000000,
		AvatarSize:     250,
	}
	return app.NewApp(cfg, db, nil, zap.NewNop()), db
}

func doRequest(t *testing.T, fiberApp *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doRawRequest(t *testing.T, fiberApp *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func signup(t *testing.T, fiberApp *fiber.App, name, email string) authResponse {
	t.Helper()
	resp := doRequest(t, fiberApp, http.MethodPost, "/users", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "s3cretpass",
		"age":      30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out authResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func createTask(t *testing.T, fiberApp *fiber.App, token, description string, completed bool) models.Task {
	t.Helper()
	resp := doRequest(t, fiberApp, http.MethodPost, "/tasks", token, fiber.Map{
		"description": description,
		"completed":   completed,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task models.Task
	decode(t, resp, &task)
	return task
}

func listTasks(t *testing.T, fiberApp *fiber.App, token, query string) []models.Task {
	t.Helper()
	resp := doRequest(t, fiberApp, http.MethodGet, "/tasks"+query, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []models.Task
	decode(t, resp, &tasks)
	return tasks
}

func descriptions(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Description)
	}
	return out
}

func TestSignupAndLogin(t *testing.T) {
	fiberApp, db := setupApp(t)

	created := signup(t, fiberApp, "Ada", "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", created.User.Email)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", created.User.ID).Error)
	assert.NotEqual(t, "s3cretpass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cretpass")))

	t.Run("response never exposes password or tokens", func(t *testing.T) {
		resp := doRequest(t, fiberApp, http.MethodGet, "/users/me", created.Token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		decode(t, resp, &body)
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "tokens")
		assert.Equal(t, "Ada", body["name"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := doRequest(t, fiberApp, http.MethodPost, "/users", "", fiber.Map{
			"name": "Other", "email": "ADA@example.com", "password": "an0therpass",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("weak passwords", func(t *testing.T) {
		for _, password := range []string{"short", "MyPassWord123"} {
			resp := doRequest(t, fiberApp, http.MethodPost, "/users", "", fiber.Map{
				"name": "Bob", "email": "bob@example.com", "password": password,
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, password)
		}
	})

	t.Run("login issues a new live token", func(t *testing.T) {
		resp := doRequest(t, fiberApp, http.MethodPost, "/users/login", "", fiber.Map{
			"email": "ada@example.com", "password": "s3cretpass",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out authResponse
		decode(t, resp, &out)
		assert.NotEqual(t, created.Token, out.Token)

		var count int64
		db.Model(&models.Token{}).Where("user_id = ? AND token = ?", created.User.ID, out.Token).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("bad credentials", func(t *testing.T) {
		resp := doRequest(t, fiberApp, http.MethodPost, "/users/login", "", fiber.Map{
			"email": "ada@example.com", "password": "wrongpass",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doRequest(t, fiberApp, http.MethodPost, "/users/login", "", fiber.Map{
			"email": "nobody@example.com", "password": "s3cretpass",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	fiberApp, _ := setupApp(t)

	for _, token := range []string{"", "not-a-jwt"} {
		resp := doRequest(t, fiberApp, http.MethodGet, "/users/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body map[string]string
		decode(t, resp, &body)
		assert.Equal(t, "Please authenticate.", body["error"])
	}

	resp := doRequest(t, fiberApp, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	fiberApp, db := setupApp(t)
	first := signup(t, fiberApp, "Ada", "ada@example.com")

	resp := doRequest(t, fiberApp, http.MethodPost, "/users/login", "", fiber.Map{
		"email": "ada@example.com", "password": "s3cretpass",
	})
	var second authResponse
	decode(t, resp, &second)

	resp = doRequest(t, fiberApp, http.MethodPost, "/users/logout", first.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Token{}).Where("token = ?", first.Token).Count(&count)
	assert.Zero(t, count)

	// Only the token used for logout is revoked.
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, fiberApp, http.MethodGet, "/users/me", first.Token, nil).StatusCode)
	assert.Equal(t, http.StatusOK, doRequest(t, fiberApp, http.MethodGet, "/users/me", second.Token, nil).StatusCode)

	resp = doRequest(t, fiberApp, http.MethodPost, "/users/logoutAll", second.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, fiberApp, http.MethodGet, "/users/me", second.Token, nil).StatusCode)
}

func TestUpdateMe(t *testing.T) {
	fiberApp, _ := setupApp(t)
	ada := signup(t, fiberApp, "Ada", "ada@example.com")
	signup(t, fiberApp, "Grace", "grace@example.com")

	resp := doRequest(t, fiberApp, http.MethodPatch, "/users/me", ada.Token, fiber.Map{"name": "Ada Lovelace", "age": 36})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	decode(t, resp, &user)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, 36, user.Age)

	resp = doRequest(t, fiberApp, http.MethodPatch, "/users/me", ada.Token, fiber.Map{"tokens": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "Invalid updates!", body.Errors["body"])

	for _, raw := range []string{`{"name":"Z"} {"tokens":[]}`, `{"name":"Z"} 42`, `{"name":"Z"`} {
		resp = doRawRequest(t, fiberApp, http.MethodPatch, "/users/me", ada.Token, raw)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, raw)
	}
	resp = doRequest(t, fiberApp, http.MethodGet, "/users/me", ada.Token, nil)
	decode(t, resp, &user)
	assert.Equal(t, "Ada Lovelace", user.Name)

	resp = doRawRequest(t, fiberApp, http.MethodPatch, "/tasks/unknown", ada.Token, `{"completed":true} {"owner":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, fiberApp, http.MethodPatch, "/users/me", ada.Token, fiber.Map{"email": "grace@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The password change takes effect for the next login.
	resp = doRequest(t, fiberApp, http.MethodPatch, "/users/me", ada.Token, fiber.Map{"password": "n3wsecret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doRequest(t, fiberApp, http.MethodPost, "/users/login", "", fiber.Map{"email": "ada@example.com", "password": "n3wsecret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTasksAreScopedToOwner(t *testing.T) {
	fiberApp, _ := setupApp(t)
	ada := signup(t, fiberApp, "Ada", "ada@example.com")
	grace := signup(t, fiberApp, "Grace", "grace@example.com")

	task := createTask(t, fiberApp, ada.Token, "Write the first program", false)
	assert.Equal(t, ada.User.ID, task.OwnerID)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		var body interface{}
		if method == http.MethodPatch {
			body = fiber.Map{"completed": true}
		}
		resp := doRequest(t, fiberApp, method, "/tasks/"+task.ID, grace.Token, body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
	}
	assert.Empty(t, listTasks(t, fiberApp, grace.Token, ""))

	resp := doRequest(t, fiberApp, http.MethodGet, "/tasks/"+task.ID, ada.Token, nil)
	var fetched models.Task
	decode(t, resp, &fetched)
	assert.False(t, fetched.Completed)

	resp = doRequest(t, fiberApp, http.MethodPatch, "/tasks/"+task.ID, ada.Token, fiber.Map{"owner": grace.User.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, fiberApp, http.MethodPatch, "/tasks/"+task.ID, ada.Token, fiber.Map{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &fetched)
	assert.True(t, fetched.Completed)

	resp = doRequest(t, fiberApp, http.MethodDelete, "/tasks/"+task.ID, ada.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, doRequest(t, fiberApp, http.MethodGet, "/tasks/"+task.ID, ada.Token, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, doRequest(t, fiberApp, http.MethodGet, "/tasks/not-a-uuid", ada.Token, nil).StatusCode)
}

func TestListTasks(t *testing.T) {
	fiberApp, _ := setupApp(t)
	ada := signup(t, fiberApp, "Ada", "ada@example.com")

	createTask(t, fiberApp, ada.Token, "b", true)
	createTask(t, fiberApp, ada.Token, "d", false)
	createTask(t, fiberApp, ada.Token, "a", true)
	createTask(t, fiberApp, ada.Token, "c", false)
	createTask(t, fiberApp, ada.Token, "e", true)

	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, descriptions(listTasks(t, fiberApp, ada.Token, "")))
	assert.Equal(t, []string{"b", "a", "e"}, descriptions(listTasks(t, fiberApp, ada.Token, "?completed=true")))
	assert.Equal(t, []string{"d", "c"}, descriptions(listTasks(t, fiberApp, ada.Token, "?completed=false")))

	asc := descriptions(listTasks(t, fiberApp, ada.Token, "?sortBy=description:asc"))
	desc := descriptions(listTasks(t, fiberApp, ada.Token, "?sortBy=description:desc"))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, asc)
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}

	assert.Equal(t, []string{"a"}, descriptions(listTasks(t, fiberApp, ada.Token, "?completed=true&limit=1&skip=1")))
	assert.Equal(t, []string{"a", "e"}, descriptions(listTasks(t, fiberApp, ada.Token, "?completed=true&limit=2&skip=1")))
	assert.Equal(t, []string{"d", "a"}, descriptions(listTasks(t, fiberApp, ada.Token, "?limit=2&skip=1")))

	// Two matching tasks: skipping one leaves only the second-oldest.
	grace := signup(t, fiberApp, "Grace", "grace@example.com")
	createTask(t, fiberApp, grace.Token, "x", true)
	createTask(t, fiberApp, grace.Token, "w", false)
	createTask(t, fiberApp, grace.Token, "y", true)
	assert.Equal(t, []string{"y"}, descriptions(listTasks(t, fiberApp, grace.Token, "?completed=true&limit=2&skip=1")))

	for _, query := range []string{"?sortBy=owner", "?sortBy=description:sideways", "?limit=-1", "?skip=x", "?completed=maybe"} {
		resp := doRequest(t, fiberApp, http.MethodGet, "/tasks"+query, ada.Token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestDeleteMe(t *testing.T) {
	fiberApp, db := setupApp(t)
	ada := signup(t, fiberApp, "Ada", "ada@example.com")
	grace := signup(t, fiberApp, "Grace", "grace@example.com")
	createTask(t, fiberApp, ada.Token, "one", false)
	createTask(t, fiberApp, ada.Token, "two", true)
	createTask(t, fiberApp, grace.Token, "keep", false)

	resp := doRequest(t, fiberApp, http.MethodDelete, "/users/me", ada.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Task{}).Where("owner_id = ?", ada.User.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Token{}).Where("user_id = ?", ada.User.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.User{}).Where("id = ?", ada.User.ID).Count(&count)
	assert.Zero(t, count)

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, fiberApp, http.MethodGet, "/users/me", ada.Token, nil).StatusCode)
	assert.Len(t, listTasks(t, fiberApp, grace.Token, ""), 1)
}

func avatarUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestAvatar(t *testing.T) {
	fiberApp, _ := setupApp(t)
	ada := signup(t, fiberApp, "Ada", "ada@example.com")

	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	for x := 0; x < 320; x++ {
		for y := 0; y < 200; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var picture bytes.Buffer
	require.NoError(t, png.Encode(&picture, img))

	upload := func(filename string, content []byte) int {
		body, contentType := avatarUpload(t, filename, content)
		req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+ada.Token)
		resp, err := fiberApp.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	avatarPath := "/users/" + ada.User.ID + "/avatar"
	assert.Equal(t, http.StatusNotFound, doRequest(t, fiberApp, http.MethodGet, avatarPath, "", nil).StatusCode)

	assert.Equal(t, http.StatusBadRequest, upload("notes.pdf", picture.Bytes()))
	assert.Equal(t, http.StatusBadRequest, upload("fake.png", []byte("definitely not an image")))
	require.Equal(t, http.StatusOK, upload("me.png", picture.Bytes()))

	resp := doRequest(t, fiberApp, http.MethodGet, avatarPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	cfg, err := png.DecodeConfig(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Width)
	assert.Equal(t, 250, cfg.Height)

	resp = doRequest(t, fiberApp, http.MethodDelete, "/users/me/avatar", ada.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, doRequest(t, fiberApp, http.MethodGet, avatarPath, "", nil).StatusCode)
}
