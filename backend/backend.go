// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"time"

	"github.com/danielhkuo/yourviews/models"
)

// Export dataset names
const (
	DatasetUsers   = "users"
	DatasetPolls   = "polls"
	DatasetOptions = "options"
	DatasetVotes   = "votes"
)

// Datasets lists every exportable dataset.
var Datasets = []string{DatasetUsers, DatasetPolls, DatasetOptions, DatasetVotes}

// PollFilter narrows ListPolls. Zero values match everything.
type PollFilter struct {
	TopicID   string
	CreatedBy string
}

type NewPoll struct {
	Title       string
	Description string
	TopicID     string
	CreatedBy   string
	Options     []string
}

type ProfileUpdate struct {
	Age        *int
	Gender     *string
	Location   *string
	Education  *string
	Occupation *string
}

// Data is the data API of the backend service. Implementations enforce
// vote uniqueness and maintain option counts.
type Data interface {
	ListTopics(ctx context.Context) ([]models.Topic, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	CreateTopic(ctx context.Context, t models.Topic) (*models.Topic, error)
	SetTopicImage(ctx context.Context, id, imageURL string) error

	ListPolls(ctx context.Context, filter PollFilter) ([]models.Poll, error)
	GetPoll(ctx context.Context, id string) (*models.Poll, error)
	CreatePoll(ctx context.Context, p NewPoll) (*models.Poll, error)
	SetPollActive(ctx context.Context, id string, active bool) error

	// VoteOnPoll records a vote and increments the option count atomically.
	// A second vote by the same user on the same poll returns ErrAlreadyVoted.
	VoteOnPoll(ctx context.Context, pollID, optionID, userID string) error
	HasVoted(ctx context.Context, pollID, userID string) (bool, error)
	ListUserVotes(ctx context.Context, userID string) ([]models.UserVote, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// EnsureProfile inserts a default profile; an existing row is left untouched.
	EnsureProfile(ctx context.Context, userID, userName string) error
	UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) error
	UpdateUserName(ctx context.Context, userID, userName string) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)

	ListComments(ctx context.Context, pollID string) ([]models.Comment, error)
	ListUserComments(ctx context.Context, userID string) ([]models.Comment, error)
	AddComment(ctx context.Context, pollID, userID, text string) (*models.Comment, error)

	GetSettings(ctx context.Context) (models.SiteSettings, error)
	SaveSettings(ctx context.Context, s models.SiteSettings) error

	Analytics(ctx context.Context, since time.Time) (*models.Analytics, error)
	// ExportRows returns a slice of flat records for the named dataset.
	ExportRows(ctx context.Context, dataset string) (any, error)

	// DeleteUserAccount removes the user's votes, comments, profile,
	// sessions and auth record. Option counts are not decremented.
	DeleteUserAccount(ctx context.Context, userID string) error
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is an authenticated backend session.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Auth is the authentication API of the backend service.
type Auth interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// GetSession validates an access token and returns its live session.
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	CreateUser(ctx context.Context, email, password, displayName string) (*User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, resetToken, password string) error
	// LookupEmails resolves many user ids in one call.
	LookupEmails(ctx context.Context, userIDs []string) (map[string]string, error)
}
