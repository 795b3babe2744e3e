// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
)

const dashboardTopPolls = 5

// Fetcher maps each use case onto backend calls and validates what comes
// back.
type Fetcher struct {
	data backend.Data
	auth backend.Auth
	now  func() time.Time
}

func New(data backend.Data, auth backend.Auth) *Fetcher {
	return &Fetcher{data: data, auth: auth, now: time.Now}
}

// Topics

func (f *Fetcher) ListTopics(ctx context.Context) ([]models.Topic, error) {
	topics, err := f.data.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return validateTopics(topics)
}

func (f *Fetcher) FetchTopic(ctx context.Context, id string) (*models.Topic, error) {
	t, err := f.data.GetTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch topic: %w", err)
	}
	if err := validateTopic(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (f *Fetcher) ListTopicPolls(ctx context.Context, topicID string) ([]models.Poll, error) {
	polls, err := f.data.ListPolls(ctx, backend.PollFilter{TopicID: topicID})
	if err != nil {
		return nil, fmt.Errorf("list topic polls: %w", err)
	}
	return normalizePolls(polls)
}

// CreateTopic adds a topic. Title and category are required.
func (f *Fetcher) CreateTopic(ctx context.Context, title, description, category string) (*models.Topic, error) {
	if err := ValidateTopic(title, category); err != nil {
		return nil, err
	}

	t, err := f.data.CreateTopic(ctx, models.Topic{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
	})
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	if err := validateTopic(t); err != nil {
		return nil, err
	}

	slog.Info("topic created", "topic_id", t.ID, "category", t.Category)
	return t, nil
}

func (f *Fetcher) SetTopicImage(ctx context.Context, topicID, imageURL string) error {
	if err := f.data.SetTopicImage(ctx, topicID, imageURL); err != nil {
		return fmt.Errorf("set topic image: %w", err)
	}
	slog.Info("topic image set", "topic_id", topicID)
	return nil
}

// Polls

// ListPolls returns every poll newest first with options embedded and
// TotalVotes recomputed from the option counts.
func (f *Fetcher) ListPolls(ctx context.Context) ([]models.Poll, error) {
	polls, err := f.data.ListPolls(ctx, backend.PollFilter{})
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	return normalizePolls(polls)
}

func (f *Fetcher) FetchPoll(ctx context.Context, id string) (*models.Poll, error) {
	p, err := f.data.GetPoll(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch poll: %w", err)
	}
	if err := normalizePoll(p); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchFeaturedPoll returns the poll with the most votes, newest first on
// ties, or nil when there are no polls.
func (f *Fetcher) FetchFeaturedPoll(ctx context.Context) (*models.Poll, error) {
	polls, err := f.ListPolls(ctx)
	if err != nil {
		return nil, err
	}

	var featured *models.Poll
	for i := range polls {
		if featured == nil || polls[i].TotalVotes > featured.TotalVotes {
			featured = &polls[i]
		}
	}
	return featured, nil
}

func (f *Fetcher) CreatePoll(ctx context.Context, req models.CreatePollRequest, userID string) (*models.Poll, error) {
	np, err := ValidateCreatePoll(req, userID)
	if err != nil {
		return nil, err
	}

	p, err := f.data.CreatePoll(ctx, np)
	if err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	if err := normalizePoll(p); err != nil {
		return nil, err
	}

	slog.Info("poll created", "poll_id", p.ID, "created_by", userID, "options", len(p.Options))
	return p, nil
}

func (f *Fetcher) SetPollActive(ctx context.Context, pollID string, active bool) error {
	if err := f.data.SetPollActive(ctx, pollID, active); err != nil {
		return fmt.Errorf("set poll active: %w", err)
	}
	slog.Info("poll status changed", "poll_id", pollID, "is_active", active)
	return nil
}

// Votes

// SubmitVote records the vote and increments the option in one backend
// call. A repeated vote fails with backend.ErrAlreadyVoted.
func (f *Fetcher) SubmitVote(ctx context.Context, pollID, optionID, userID string) error {
	if pollID == "" || userID == "" {
		return fmt.Errorf("submit vote: %w", backend.ErrNotFound)
	}
	if strings.TrimSpace(optionID) == "" {
		return &ValidationError{Fields: map[string]string{"option_id": "Please select an option"}}
	}

	if err := f.data.VoteOnPoll(ctx, pollID, optionID, userID); err != nil {
		return fmt.Errorf("submit vote: %w", err)
	}
	return nil
}

// FetchUserHasVoted gates the ballot; the backend remains the authority on
// duplicates.
func (f *Fetcher) FetchUserHasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	voted, err := f.data.HasVoted(ctx, pollID, userID)
	if err != nil {
		return false, fmt.Errorf("fetch has voted: %w", err)
	}
	return voted, nil
}

// Comments

func (f *Fetcher) ListComments(ctx context.Context, pollID string) ([]models.Comment, error) {
	comments, err := f.data.ListComments(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return validateComments(pollID, comments)
}

func (f *Fetcher) AddComment(ctx context.Context, pollID, userID string, req models.CommentRequest) (*models.Comment, error) {
	if err := ValidateComment(req); err != nil {
		return nil, err
	}

	c, err := f.data.AddComment(ctx, pollID, userID, strings.TrimSpace(req.Text))
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}

// Profiles

func (f *Fetcher) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := f.data.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *Fetcher) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error {
	u, err := ValidateProfile(req)
	if err != nil {
		return err
	}
	if err := f.data.UpdateProfile(ctx, userID, u); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (f *Fetcher) UpdateAccount(ctx context.Context, userID string, req models.UpdateAccountRequest) error {
	if err := ValidateAccount(req); err != nil {
		return err
	}
	if err := f.data.UpdateUserName(ctx, userID, strings.TrimSpace(req.UserName)); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// FetchUserActivity loads the user's polls, votes and comments
// concurrently.
func (f *Fetcher) FetchUserActivity(ctx context.Context, userID string) (*models.UserActivity, error) {
	var activity models.UserActivity

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		polls, err := f.data.ListPolls(gctx, backend.PollFilter{CreatedBy: userID})
		if err != nil {
			return fmt.Errorf("list created polls: %w", err)
		}
		activity.CreatedPolls, err = normalizePolls(polls)
		return err
	})
	g.Go(func() error {
		votes, err := f.data.ListUserVotes(gctx, userID)
		if err != nil {
			return fmt.Errorf("list votes: %w", err)
		}
		activity.Votes, err = validateVotes(votes)
		return err
	})
	g.Go(func() error {
		comments, err := f.data.ListUserComments(gctx, userID)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		activity.Comments, err = validateComments("", comments)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch user activity: %w", err)
	}
	return &activity, nil
}

// DeleteAccount removes the user's data and auth record.
func (f *Fetcher) DeleteAccount(ctx context.Context, userID string) error {
	if err := f.data.DeleteUserAccount(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Password recovery

func (f *Fetcher) RequestPasswordReset(ctx context.Context, req models.ForgotPasswordRequest, redirectTo string) error {
	if err := ValidateForgotPassword(req); err != nil {
		return err
	}
	if err := f.auth.ResetPasswordForEmail(ctx, strings.TrimSpace(req.Email), redirectTo); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

func (f *Fetcher) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := ValidateResetPassword(req); err != nil {
		return err
	}
	if err := f.auth.UpdatePassword(ctx, req.Token, req.Password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// Admin

// ListUsers returns every profile with its email. Emails are resolved
// with one batch lookup.
func (f *Fetcher) ListUsers(ctx context.Context) ([]models.AdminUser, error) {
	profiles, err := f.data.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]string, len(profiles))
	for i := range profiles {
		if err := validateProfile(&profiles[i]); err != nil {
			return nil, err
		}
		ids[i] = profiles[i].UserID
	}

	emails := map[string]string{}
	if len(ids) > 0 {
		emails, err = f.auth.LookupEmails(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("lookup emails: %w", err)
		}
	}

	users := make([]models.AdminUser, len(profiles))
	for i, p := range profiles {
		users[i] = models.AdminUser{
			UserProfile:     p,
			Email:           emails[p.UserID],
			ProfileComplete: p.HasDemographics(),
		}
	}
	return users, nil
}

// AddUser creates an auth user and its profile.
func (f *Fetcher) AddUser(ctx context.Context, req models.AddUserRequest) (*backend.User, error) {
	if err := ValidateAddUser(req); err != nil {
		return nil, err
	}

	userName := strings.TrimSpace(req.UserName)
	u, err := f.auth.CreateUser(ctx, strings.TrimSpace(req.Email), req.Password, userName)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	if err := f.data.EnsureProfile(ctx, u.ID, userName); err != nil {
		// A user without a profile must not keep the email.
		if derr := f.data.DeleteUserAccount(ctx, u.ID); derr != nil {
			slog.Error("add user rollback failed", "user_id", u.ID, "error", derr)
		}
		return nil, fmt.Errorf("add user profile: %w", err)
	}

	slog.Info("user added", "user_id", u.ID)
	return u, nil
}

func (f *Fetcher) SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error {
	if err := f.data.SetAdmin(ctx, userID, isAdmin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	slog.Info("admin flag changed", "user_id", userID, "is_admin", isAdmin)
	return nil
}

func (f *Fetcher) FetchAnalytics(ctx context.Context, r models.AnalyticsRange) (*models.Analytics, error) {
	a, err := f.data.Analytics(ctx, r.Since(f.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("fetch analytics: %w", err)
	}
	if err := validateAnalytics(a); err != nil {
		return nil, err
	}

	a.Range = r
	if a.TopPolls == nil {
		a.TopPolls = []models.PollVotes{}
	}
	if a.TopicDistribution == nil {
		a.TopicDistribution = []models.Bucket{}
	}
	if a.Engagement == nil {
		a.Engagement = []models.EngagementPoint{}
	}
	return a, nil
}

// FetchDashboard returns all-time totals and the five most voted polls.
func (f *Fetcher) FetchDashboard(ctx context.Context) (*models.Dashboard, error) {
	a, err := f.FetchAnalytics(ctx, models.RangeAll)
	if err != nil {
		return nil, err
	}

	top := a.TopPolls
	if len(top) > dashboardTopPolls {
		top = top[:dashboardTopPolls]
	}
	return &models.Dashboard{Totals: a.Totals, TopPolls: top}, nil
}

func (f *Fetcher) FetchSettings(ctx context.Context) (models.SiteSettings, error) {
	s, err := f.data.GetSettings(ctx)
	if err != nil {
		return models.SiteSettings{}, fmt.Errorf("fetch settings: %w", err)
	}
	return s, nil
}

func (f *Fetcher) SaveSettings(ctx context.Context, s models.SiteSettings) error {
	s.SiteName = strings.TrimSpace(s.SiteName)
	s.ContactEmail = strings.TrimSpace(s.ContactEmail)
	if err := ValidateSettings(s); err != nil {
		return err
	}
	if err := f.data.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	slog.Info("settings saved")
	return nil
}

// ExportDataset returns the rows of a named dataset.
func (f *Fetcher) ExportDataset(ctx context.Context, name string) (any, error) {
	rows, err := f.data.ExportRows(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", name, err)
	}
	return rows, nil
}
