// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/yourviews/auth"
	"github.com/danielhkuo/yourviews/cliparse"
	"github.com/danielhkuo/yourviews/db"
)

// TestPassword is the password of every user created by CreateTestUser
const TestPassword = "Password1"

var (
	passwordHashOnce sync.Once
	passwordHash     string
)

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "yourviews_test.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        "file:test.db",
		DatabaseType:       db.TypeSQLite,
		JWTSecret:          "test-jwt-secret",
		AccessTokenTTL:     time.Hour,
		ResetTokenTTL:      time.Hour,
		SessionResolveWait: time.Second,
		SessionIdleTTL:     time.Hour,
		CacheStaleTime:     5 * time.Minute,
		CacheGCTime:        10 * time.Minute,
		CacheRetries:       0,
		CacheRetryDelay:    time.Millisecond,
		SiteURL:            "http://localhost:3318",
	}
}

func testPasswordHash(t *testing.T) string {
	t.Helper()
	passwordHashOnce.Do(func() {
		passwordHash, _ = auth.HashPassword(TestPassword)
	})
	if passwordHash == "" {
		t.Fatal("Failed to hash test password")
	}
	return passwordHash
}

// CreateTestAuthUser inserts an auth user without a profile and returns its ID
func CreateTestAuthUser(t *testing.T, conn *sql.DB, email, displayName string) string {
	t.Helper()

	userID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO auth_user (id, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, email, testPasswordHash(t), displayName, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test auth user: %v", err)
	}

	return userID
}

// CreateTestUser inserts an auth user with a profile and returns its ID
func CreateTestUser(t *testing.T, conn *sql.DB, email, userName string, isAdmin bool) string {
	t.Helper()

	userID := CreateTestAuthUser(t, conn, email, userName)
	_, err := conn.Exec(`
		INSERT INTO user_profile (user_id, user_name, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, userName, isAdmin, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return userID
}

// CreateTestTopic inserts a topic and returns its ID
func CreateTestTopic(t *testing.T, conn *sql.DB, title, category string) string {
	t.Helper()

	topicID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO topic (id, title, description, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, topicID, title, "About "+title, category, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test topic: %v", err)
	}

	return topicID
}

// CreateTestPoll inserts an active poll with the given options and returns
// the poll ID and option IDs in order. topicID may be empty.
func CreateTestPoll(t *testing.T, conn *sql.DB, topicID, createdBy, title string, options ...string) (string, []string) {
	t.Helper()

	var topic *string
	if topicID != "" {
		topic = &topicID
	}

	pollID := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO poll_item (id, topic_id, title, description, created_by, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pollID, topic, title, "A test poll", createdBy, true, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	optionIDs := make([]string, 0, len(options))
	for i, text := range options {
		optionID := uuid.NewString()
		_, err := conn.Exec(`
			INSERT INTO poll_option (id, poll_id, option_text, vote_count, position, created_at)
			VALUES ($1, $2, $3, 0, $4, $5)
		`, optionID, pollID, text, i, now)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		optionIDs = append(optionIDs, optionID)
	}

	return pollID, optionIDs
}

// CastTestVote records a vote and bumps the option count
func CastTestVote(t *testing.T, conn *sql.DB, userID, pollID, optionID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO user_vote (id, user_id, poll_id, option_id, voted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, pollID, optionID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = conn.Exec(`UPDATE poll_option SET vote_count = vote_count + 1 WHERE id = $1`, optionID)
	if err != nil {
		t.Fatalf("Failed to increment test option: %v", err)
	}
}

// OptionVoteCount reads an option's stored vote_count
func OptionVoteCount(t *testing.T, conn *sql.DB, optionID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT vote_count FROM poll_option WHERE id = $1`, optionID).Scan(&n); err != nil {
		t.Fatalf("Failed to read vote count: %v", err)
	}
	return n
}

// CountRows counts rows in a table matching an optional where clause
func CountRows(t *testing.T, conn *sql.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
