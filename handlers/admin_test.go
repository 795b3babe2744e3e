// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/yourviews/media"
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/testutil"
)

func newAdminHandler(t *testing.T, env *testEnv, cfg media.Config) *AdminHandler {
	t.Helper()
	uploader, err := media.New(t.Context(), cfg)
	require.NoError(t, err)
	return NewAdminHandler(env.q, env.cache, env.sessions, uploader)
}

func TestAddUser(t *testing.T) {
	env := setupEnv(t)
	h := newAdminHandler(t, env, media.Config{})
	pages := NewPageHandler(env.q, env.cache)
	admin, _ := env.signIn(t, "admin@example.com", "admin", true)

	// Cached before the new user exists.
	var before []models.AdminUser
	decodeView(t, call(pages.AdminUsers, "GET", "/admin/users", nil, admin), &before)
	require.Len(t, before, 1)

	tests := []struct {
		name   string
		req    models.AddUserRequest
		status int
	}{
		{"invalid", models.AddUserRequest{Email: "bad", Password: "123", UserName: "x"}, http.StatusBadRequest},
		{"valid", models.AddUserRequest{Email: "added@example.com", Password: "secret1", UserName: "added"}, http.StatusCreated},
		{"duplicate email", models.AddUserRequest{Email: "added@example.com", Password: "secret1", UserName: "again"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(h.AddUser, "POST", "/api/admin/users", tt.req, admin)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	var after []models.AdminUser
	decodeView(t, call(pages.AdminUsers, "GET", "/admin/users", nil, admin), &after)
	require.Len(t, after, 2)

	emails := []string{after[0].Email, after[1].Email}
	assert.ElementsMatch(t, []string{"admin@example.com", "added@example.com"}, emails)
}

func TestSetAdmin(t *testing.T) {
	env := setupEnv(t)
	h := newAdminHandler(t, env, media.Config{})
	admin, adminID := env.signIn(t, "admin@example.com", "admin", true)
	memberID := testutil.CreateTestUser(t, env.conn, "member@example.com", "member", false)

	w := call(h.SetAdmin, "PUT", "/api/admin/users/"+memberID+"/admin", models.SetAdminRequest{IsAdmin: true}, admin, "id", memberID)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	assert.Equal(t, "User is now an administrator.", decodeAction(t, w, nil).Notification.Description)

	profile, err := env.q.FetchProfile(t.Context(), memberID)
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)

	w = call(h.SetAdmin, "PUT", "/api/admin/users/"+adminID+"/admin", models.SetAdminRequest{IsAdmin: false}, admin, "id", adminID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	w = call(h.SetAdmin, "PUT", "/api/admin/users/missing/admin", models.SetAdminRequest{IsAdmin: true}, admin, "id", "missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestSaveSettings(t *testing.T) {
	env := setupEnv(t)
	h := newAdminHandler(t, env, media.Config{})
	pages := NewPageHandler(env.q, env.cache)

	var before models.SiteSettings
	decodeView(t, call(pages.AdminSettings, "GET", "/admin/settings", nil, nil), &before)
	assert.Equal(t, models.DefaultSiteSettings(), before)

	invalid := before
	invalid.ContactEmail = "not-an-email"
	invalid.DefaultPollDurationDays = 0
	w := call(h.SaveSettings, "PUT", "/api/admin/settings", invalid, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	fields := decodeError(t, w).Fields
	assert.Contains(t, fields, "contact_email")
	assert.Contains(t, fields, "default_poll_duration_days")

	updated := before
	updated.SiteName = "Our Views"
	updated.AllowRegistration = false
	w = call(h.SaveSettings, "PUT", "/api/admin/settings", updated, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	assert.Equal(t, "Settings Saved", decodeAction(t, w, nil).Notification.Title)

	var after models.SiteSettings
	decodeView(t, call(pages.AdminSettings, "GET", "/admin/settings", nil, nil), &after)
	assert.Equal(t, updated, after)
}

func TestExport(t *testing.T) {
	env := setupEnv(t)
	h := newAdminHandler(t, env, media.Config{})

	authorID := testutil.CreateTestUser(t, env.conn, "author@example.com", `Quote "Q" Person`, false)
	testutil.CreateTestUser(t, env.conn, "second@example.com", "second", false)
	testutil.CreateTestPoll(t, env.conn, "", authorID, `Say "hi"?`, "Yes", "No")

	t.Run("users csv", func(t *testing.T) {
		w := call(h.Export, "GET", "/api/admin/export/users.csv", nil, nil, "file", "users.csv")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="users_export.csv"`, w.Header().Get("Content-Disposition"))

		lines := strings.Split(w.Body.String(), "\r\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "user_id,user_name,is_admin"))
		assert.Contains(t, w.Body.String(), `"Quote ""Q"" Person"`)
	})

	t.Run("polls json", func(t *testing.T) {
		w := call(h.Export, "GET", "/api/admin/export/polls.json", nil, nil, "file", "polls.json")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "\n  {")

		var rows []models.PollRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, `Say "hi"?`, rows[0].Title)
	})

	t.Run("empty dataset", func(t *testing.T) {
		w := call(h.Export, "GET", "/api/admin/export/votes.csv", nil, nil, "file", "votes.csv")
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status %d, got %d", http.StatusNotFound, w.Code)
		}
		resp := decodeError(t, w)
		require.NotNil(t, resp.Notification)
		assert.Equal(t, "There is no data to export.", resp.Notification.Description)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		w := call(h.Export, "GET", "/api/admin/export/secrets.csv", nil, nil, "file", "secrets.csv")
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		w := call(h.Export, "GET", "/api/admin/export/users.xml", nil, nil, "file", "users.xml")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestCreateTopic(t *testing.T) {
	env := setupEnv(t)
	h := newAdminHandler(t, env, media.Config{})
	pages := NewPageHandler(env.q, env.cache)

	w := call(pages.Topics, "GET", "/topics", nil, nil)
	assert.Equal(t, models.ViewEmpty, decodeView(t, w, nil).Status)

	w = call(h.CreateTopic, "POST", "/api/admin/topics", models.CreateTopicRequest{Title: "Music"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	w = call(h.CreateTopic, "POST", "/api/admin/topics", models.CreateTopicRequest{Title: "Music", Category: "Culture"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var topic models.Topic
	a := decodeAction(t, w, &topic)
	assert.Equal(t, "/topics/"+topic.ID, a.RedirectTo)

	var data models.TopicsData
	decodeView(t, call(pages.Topics, "GET", "/topics", nil, nil), &data)
	require.Len(t, data.Topics, 1)
	assert.Equal(t, "Music", data.Topics[0].Title)
}

func TestTopicImage(t *testing.T) {
	env := setupEnv(t)
	topicID := testutil.CreateTestTopic(t, env.conn, "Food", "Lifestyle")

	t.Run("uploads disabled", func(t *testing.T) {
		h := newAdminHandler(t, env, media.Config{})
		w := call(h.TopicImage, "POST", "/api/admin/topics/"+topicID+"/image", models.TopicImageRequest{ContentType: "image/png"}, nil, "id", topicID)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})

	h := newAdminHandler(t, env, media.Config{
		Bucket:    "topic-images",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "minio-secret",
		PublicURL: "https://cdn.yourviews.example",
	})

	t.Run("missing topic", func(t *testing.T) {
		w := call(h.TopicImage, "POST", "/api/admin/topics/missing/image", models.TopicImageRequest{ContentType: "image/png"}, nil, "id", "missing")
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		w := call(h.TopicImage, "POST", "/api/admin/topics/"+topicID+"/image", models.TopicImageRequest{ContentType: "image/tiff"}, nil, "id", topicID)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("presigned", func(t *testing.T) {
		pages := NewPageHandler(env.q, env.cache)
		decodeView(t, call(pages.Topic, "GET", "/topics/"+topicID, nil, nil, "id", topicID), nil)

		w := call(h.TopicImage, "POST", "/api/admin/topics/"+topicID+"/image", models.TopicImageRequest{ContentType: "image/png"}, nil, "id", topicID)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp models.TopicImageResponse
		decodeAction(t, w, &resp)
		assert.True(t, strings.HasPrefix(resp.UploadURL, "http://127.0.0.1:9000/topic-images/topics/"+topicID+"/"))
		assert.Contains(t, resp.UploadURL, "X-Amz-Signature=")
		assert.True(t, strings.HasPrefix(resp.ImageURL, "https://cdn.yourviews.example/topics/"+topicID+"/"))
		assert.True(t, strings.HasSuffix(resp.ImageURL, ".png"))

		var detail models.TopicDetail
		decodeView(t, call(pages.Topic, "GET", "/topics/"+topicID, nil, nil, "id", topicID), &detail)
		require.NotNil(t, detail.Topic.ImageURL)
		assert.Equal(t, resp.ImageURL, *detail.Topic.ImageURL)
	})
}
