// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// View status constants
const (
	ViewLoading  = "loading"
	ViewSuccess  = "success"
	ViewError    = "error"
	ViewEmpty    = "empty"
	ViewNotFound = "not_found"
)

// Notification variants
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Poll sort orders
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortMostVoted = "most_voted"
)

// Domain types

type Topic struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"image_url,omitempty"`
	PollCount   int       `json:"poll_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Poll struct {
	ID            string     `json:"id"`
	TopicID       *string    `json:"topic_id,omitempty"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedByName *string    `json:"created_by_name,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	Options       []Option   `json:"options"`
	TotalVotes    int        `json:"total_votes"`
}

// SumVotes returns the sum of all option vote counts.
func (p *Poll) SumVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += opt.VoteCount
	}
	return total
}

type Option struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
}

type UserVote struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	PollID   string    `json:"poll_id"`
	OptionID string    `json:"option_id"`
	VotedAt  time.Time `json:"voted_at"`
}

type UserProfile struct {
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	IsAdmin    bool       `json:"is_admin"`
	Age        *int       `json:"age,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
	Location   *string    `json:"location,omitempty"`
	Education  *string    `json:"education,omitempty"`
	Occupation *string    `json:"occupation,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// HasDemographics reports whether any optional demographic field is set.
func (p *UserProfile) HasDemographics() bool {
	return p.Age != nil || p.Gender != nil || p.Location != nil || p.Education != nil || p.Occupation != nil
}

type Comment struct {
	ID        string     `json:"id"`
	PollID    string     `json:"poll_id"`
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Identity is the authenticated user as seen by views.
type Identity struct {
	UserID   string       `json:"user_id"`
	Email    string       `json:"email"`
	UserName string       `json:"user_name"`
	IsAdmin  bool         `json:"is_admin"`
	Profile  *UserProfile `json:"profile,omitempty"`
}

type UserActivity struct {
	CreatedPolls []Poll     `json:"created_polls"`
	Votes        []UserVote `json:"votes"`
	Comments     []Comment  `json:"comments"`
}

// AdminUser is a profile row joined with the auth email.
type AdminUser struct {
	UserProfile
	Email           string `json:"email"`
	ProfileComplete bool   `json:"profile_complete"`
}

type SiteSettings struct {
	SiteName                 string `json:"site_name"`
	SiteDescription          string `json:"site_description"`
	ContactEmail             string `json:"contact_email"`
	AllowRegistration        bool   `json:"allow_registration"`
	DefaultPollDurationDays  int    `json:"default_poll_duration_days"`
	AllowAnonymousVoting     bool   `json:"allow_anonymous_voting"`
	RequireEmailVerification bool   `json:"require_email_verification"`
}

// DefaultSiteSettings mirrors the values shown on a fresh install.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:                 "YourViews",
		SiteDescription:          "YourViews is a platform for creating and participating in polls.",
		ContactEmail:             "contact@yourviews.com",
		AllowRegistration:        true,
		DefaultPollDurationDays:  7,
		RequireEmailVerification: true,
	}
}

// Analytics types

type AnalyticsRange string

const (
	RangeWeek  AnalyticsRange = "week"
	RangeMonth AnalyticsRange = "month"
	RangeYear  AnalyticsRange = "year"
	RangeAll   AnalyticsRange = "all"
)

// ParseRange parses a time range name. Empty input means RangeAll.
func ParseRange(s string) (AnalyticsRange, bool) {
	switch AnalyticsRange(s) {
	case "", RangeAll:
		return RangeAll, true
	case RangeWeek, RangeMonth, RangeYear:
		return AnalyticsRange(s), true
	}
	return "", false
}

// Since returns the lower time bound for the range, or the zero time for RangeAll.
func (r AnalyticsRange) Since(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

type Totals struct {
	TotalUsers      int `json:"total_users"`
	TotalTopics     int `json:"total_topics"`
	TotalPolls      int `json:"total_polls"`
	ActivePolls     int `json:"active_polls"`
	TotalVotes      int `json:"total_votes"`
	AvgVotesPerPoll int `json:"avg_votes_per_poll"`
}

type PollVotes struct {
	PollID string `json:"poll_id"`
	Name   string `json:"name"`
	Votes  int    `json:"votes"`
}

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type EngagementPoint struct {
	Period string `json:"period"` // YYYY-MM
	Votes  int    `json:"votes"`
}

type Demographics struct {
	Gender    []Bucket `json:"gender"`
	AgeGroups []Bucket `json:"age_groups"`
	Education []Bucket `json:"education"`
	Location  []Bucket `json:"location"`
}

type Analytics struct {
	Range             AnalyticsRange    `json:"range"`
	Totals            Totals            `json:"totals"`
	TopPolls          []PollVotes       `json:"top_polls"`
	TopicDistribution []Bucket          `json:"topic_distribution"`
	Engagement        []EngagementPoint `json:"engagement"`
	Demographics      Demographics      `json:"demographics"`
}

type Dashboard struct {
	Totals   Totals      `json:"totals"`
	TopPolls []PollVotes `json:"top_polls"`
}

// Export records

// PollRecord is the flat export shape of a poll row.
type PollRecord struct {
	ID          string     `json:"poll_id"`
	TopicID     *string    `json:"topic_id"`
	Title       string     `json:"poll_title"`
	Description *string    `json:"poll_description"`
	CreatedBy   string     `json:"created_by_id"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Request types

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Terms           bool   `json:"terms"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type CreatePollRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TopicID     string   `json:"topic_id"`
	Options     []string `json:"options"`
}

type VoteRequest struct {
	OptionID string `json:"option_id"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type UpdateProfileRequest struct {
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
	Location   *string `json:"location"`
	Education  *string `json:"education"`
	Occupation *string `json:"occupation"`
}

type UpdateAccountRequest struct {
	UserName string `json:"user_name"`
}

type AddUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"user_name"`
}

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

type SetPollActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type CreateTopicRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type TopicImageRequest struct {
	ContentType string `json:"content_type"`
}

// Response types

type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"`
}

type ActionResponse struct {
	Notification Notification `json:"notification"`
	RedirectTo   string       `json:"redirect_to,omitempty"`
	Data         any          `json:"data,omitempty"`
}

type Link struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// View is the envelope every page route renders.
type View struct {
	Page             string    `json:"page"`
	Status           string    `json:"status"`
	Data             any       `json:"data,omitempty"`
	Error            string    `json:"error,omitempty"`
	Identity         *Identity `json:"identity"`
	ShowCookieBanner bool      `json:"show_cookie_banner"`
	Actions          []Link    `json:"actions,omitempty"`
}

type PollDetail struct {
	Poll        Poll      `json:"poll"`
	HasVoted    bool      `json:"has_voted"`
	ShowResults bool      `json:"show_results"`
	Comments    []Comment `json:"comments"`
}

type HomeData struct {
	FeaturedPoll   *Poll   `json:"featured_poll"`
	FeaturedTopics []Topic `json:"featured_topics"`
}

type TopicDetail struct {
	Topic Topic  `json:"topic"`
	Polls []Poll `json:"polls"`
}

type TopicsData struct {
	Topics     []Topic  `json:"topics"`
	Categories []string `json:"categories"`
	Query      string   `json:"query"`
	Category   string   `json:"category"`
}

type PollsData struct {
	Polls []Poll `json:"polls"`
	Query string `json:"query"`
	Sort  string `json:"sort"`
}

type ProfileData struct {
	Profile  UserProfile  `json:"profile"`
	Email    string       `json:"email"`
	Activity UserActivity `json:"activity"`
}

type TopicImageResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
}

// Error response

type ErrorResponse struct {
	Error        string            `json:"error"`
	Message      string            `json:"message,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
}
