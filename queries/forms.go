// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queries

import (
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/danielhkuo/yourviews/backend"
	"github.com/danielhkuo/yourviews/models"
)

const (
	MinUserNameLength    = 3
	MinPasswordLength    = 8
	MinAddUserPassword   = 6
	MaxCommentLength     = 1000
	MaxPollOptions       = 10
	MaxPollDurationDays  = 365
	MinAge               = 1
	MaxAge               = 119
	minPollOptionsNeeded = 2
)

// ValidationError holds field-level form errors keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

// add keeps the first message per field.
func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func checkStrongPassword(f fieldErrors, field, password string) {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	switch {
	case length(password) < MinPasswordLength:
		f.add(field, "Password must be at least 8 characters")
	case !upper:
		f.add(field, "Password must contain at least one uppercase letter")
	case !lower:
		f.add(field, "Password must contain at least one lowercase letter")
	case !digit:
		f.add(field, "Password must contain at least one number")
	}
}

func ValidateLogin(req models.LoginRequest) error {
	f := fieldErrors{}
	if !validEmail(strings.TrimSpace(req.Email)) {
		f.add("email", "Please enter a valid email address")
	}
	if length(req.Password) < MinAddUserPassword {
		f.add("password", "Password must be at least 6 characters")
	}
	return f.err()
}

func ValidateRegister(req models.RegisterRequest) error {
	f := fieldErrors{}
	if length(strings.TrimSpace(req.Username)) < MinUserNameLength {
		f.add("username", "Username must be at least 3 characters")
	}
	if !validEmail(strings.TrimSpace(req.Email)) {
		f.add("email", "Please enter a valid email address")
	}
	checkStrongPassword(f, "password", req.Password)
	if req.Password != req.ConfirmPassword {
		f.add("confirm_password", "Passwords do not match")
	}
	if !req.Terms {
		f.add("terms", "You must accept the terms and conditions")
	}
	return f.err()
}

func ValidateForgotPassword(req models.ForgotPasswordRequest) error {
	f := fieldErrors{}
	if !validEmail(strings.TrimSpace(req.Email)) {
		f.add("email", "Please enter a valid email address")
	}
	return f.err()
}

func ValidateResetPassword(req models.ResetPasswordRequest) error {
	f := fieldErrors{}
	if strings.TrimSpace(req.Token) == "" {
		f.add("token", "Reset link is invalid or has expired")
	}
	checkStrongPassword(f, "password", req.Password)
	if req.Password != req.ConfirmPassword {
		f.add("confirm_password", "Passwords do not match")
	}
	return f.err()
}

// ValidateCreatePoll checks the form and returns the poll to create with
// trimmed text.
func ValidateCreatePoll(req models.CreatePollRequest, userID string) (backend.NewPoll, error) {
	f := fieldErrors{}

	np := backend.NewPoll{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		TopicID:     strings.TrimSpace(req.TopicID),
		CreatedBy:   userID,
	}
	if np.Title == "" {
		f.add("title", "Title is required")
	}

	for i, text := range req.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			f.add("options."+strconv.Itoa(i), "Option text cannot be empty")
			continue
		}
		np.Options = append(np.Options, text)
	}
	switch {
	case len(req.Options) < minPollOptionsNeeded:
		f.add("options", "At least two options are required")
	case len(req.Options) > MaxPollOptions:
		f.add("options", "A poll can have at most 10 options")
	}

	return np, f.err()
}

// ValidateProfile checks the demographics form. Blank strings clear a field.
func ValidateProfile(req models.UpdateProfileRequest) (backend.ProfileUpdate, error) {
	f := fieldErrors{}

	if req.Age != nil && (*req.Age < MinAge || *req.Age > MaxAge) {
		f.add("age", "Age must be a number between 1 and 120")
	}

	return backend.ProfileUpdate{
		Age:        req.Age,
		Gender:     optional(req.Gender),
		Location:   optional(req.Location),
		Education:  optional(req.Education),
		Occupation: optional(req.Occupation),
	}, f.err()
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func ValidateAccount(req models.UpdateAccountRequest) error {
	f := fieldErrors{}
	if length(strings.TrimSpace(req.UserName)) < MinUserNameLength {
		f.add("user_name", "Username must be at least 3 characters long.")
	}
	return f.err()
}

func ValidateAddUser(req models.AddUserRequest) error {
	f := fieldErrors{}
	if !validEmail(strings.TrimSpace(req.Email)) {
		f.add("email", "Invalid email address")
	}
	if length(req.Password) < MinAddUserPassword {
		f.add("password", "Password must be at least 6 characters")
	}
	if length(strings.TrimSpace(req.UserName)) < MinUserNameLength {
		f.add("user_name", "Username must be at least 3 characters")
	}
	return f.err()
}

func ValidateComment(req models.CommentRequest) error {
	f := fieldErrors{}
	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		f.add("text", "Comment cannot be empty")
	case length(text) > MaxCommentLength:
		f.add("text", "Comment must be at most 1000 characters")
	}
	return f.err()
}

func ValidateSettings(s models.SiteSettings) error {
	f := fieldErrors{}
	if strings.TrimSpace(s.SiteName) == "" {
		f.add("site_name", "Site name is required")
	}
	if !validEmail(strings.TrimSpace(s.ContactEmail)) {
		f.add("contact_email", "Please enter a valid email address")
	}
	if s.DefaultPollDurationDays < 1 || s.DefaultPollDurationDays > MaxPollDurationDays {
		f.add("default_poll_duration_days", "Poll duration must be between 1 and 365 days")
	}
	return f.err()
}

func ValidateTopic(title, category string) error {
	f := fieldErrors{}
	if strings.TrimSpace(title) == "" {
		f.add("title", "Title is required")
	}
	if strings.TrimSpace(category) == "" {
		f.add("category", "Category is required")
	}
	return f.err()
}
