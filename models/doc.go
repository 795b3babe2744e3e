// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for YourViews.

# Domain Types

Entities persisted behind the backend contract:

  - Topic: title, description, category, optional image, derived poll_count
  - Poll: topic reference, creator, active flag, ordered options, total_votes
  - Option: option text with a backend-maintained vote_count
  - UserVote: one vote per user per poll
  - UserProfile: display name, admin flag, optional demographics
  - Comment: poll comment with the author's display name embedded
  - SiteSettings: admin-editable site configuration

total_votes is always the sum of the options' vote_count values:

	poll.TotalVotes = poll.SumVotes()

# Request Types

Types for parsing incoming JSON:

  - LoginRequest, RegisterRequest: auth forms
  - ForgotPasswordRequest, ResetPasswordRequest: password recovery
  - CreatePollRequest: title, description, topic_id, options
  - VoteRequest: option_id
  - CommentRequest: text
  - UpdateProfileRequest, UpdateAccountRequest: profile tabs
  - AddUserRequest, SetAdminRequest, SetPollActiveRequest: admin actions
  - TopicImageRequest: content_type for a presigned upload

# Response Types

Page routes render a View envelope:

	{
	  "page": "poll",
	  "status": "success",
	  "data": {...},
	  "identity": {...},
	  "show_cookie_banner": false
	}

Status is one of loading, success, error, empty, not_found.

Actions answer with an ActionResponse carrying a Notification
(title, description, variant). Failures answer with ErrorResponse, which
may carry a field-level validation map.

# Analytics

AnalyticsRange selects the time window (week, month, year, all). Analytics
bundles totals, top polls, topic distribution, monthly engagement, and
demographic buckets.
*/
package models
