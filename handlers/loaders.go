// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"

	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
)

// loader reads through the shared query cache. Every key is always loaded
// by the same method here so its cached value keeps one type.
type loader struct {
	q     *queries.Fetcher
	cache *querycache.Cache
}

func (l loader) topics(ctx context.Context) ([]models.Topic, error) {
	return querycache.Query(ctx, l.cache, queries.TopicsKey(), l.q.ListTopics)
}

func (l loader) topic(ctx context.Context, id string) (*models.Topic, error) {
	return querycache.Query(ctx, l.cache, queries.TopicKey(id), func(ctx context.Context) (*models.Topic, error) {
		return l.q.FetchTopic(ctx, id)
	})
}

func (l loader) topicPolls(ctx context.Context, topicID string) ([]models.Poll, error) {
	return querycache.Query(ctx, l.cache, queries.TopicPollsKey(topicID), func(ctx context.Context) ([]models.Poll, error) {
		return l.q.ListTopicPolls(ctx, topicID)
	})
}

func (l loader) polls(ctx context.Context) ([]models.Poll, error) {
	return querycache.Query(ctx, l.cache, queries.PollsKey(), l.q.ListPolls)
}

func (l loader) featuredPoll(ctx context.Context) (*models.Poll, error) {
	return querycache.Query(ctx, l.cache, queries.FeaturedPollKey(), l.q.FetchFeaturedPoll)
}

func (l loader) pollFetch(id string) querycache.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return l.q.FetchPoll(ctx, id)
	}
}

func (l loader) poll(ctx context.Context, id string) (*models.Poll, error) {
	return querycache.Query(ctx, l.cache, queries.PollKey(id), func(ctx context.Context) (*models.Poll, error) {
		return l.q.FetchPoll(ctx, id)
	})
}

func (l loader) hasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return querycache.Query(ctx, l.cache, queries.HasVotedKey(pollID, userID), func(ctx context.Context) (bool, error) {
		return l.q.FetchUserHasVoted(ctx, pollID, userID)
	})
}

func (l loader) comments(ctx context.Context, pollID string) ([]models.Comment, error) {
	return querycache.Query(ctx, l.cache, queries.CommentsKey(pollID), func(ctx context.Context) ([]models.Comment, error) {
		return l.q.ListComments(ctx, pollID)
	})
}

func (l loader) profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return querycache.Query(ctx, l.cache, queries.ProfileKey(userID), func(ctx context.Context) (*models.UserProfile, error) {
		return l.q.FetchProfile(ctx, userID)
	})
}

func (l loader) activity(ctx context.Context, userID string) (*models.UserActivity, error) {
	return querycache.Query(ctx, l.cache, queries.ActivityKey(userID), func(ctx context.Context) (*models.UserActivity, error) {
		return l.q.FetchUserActivity(ctx, userID)
	})
}

func (l loader) users(ctx context.Context) ([]models.AdminUser, error) {
	return querycache.Query(ctx, l.cache, queries.UsersKey(), l.q.ListUsers)
}

func (l loader) analytics(ctx context.Context, r models.AnalyticsRange) (*models.Analytics, error) {
	return querycache.Query(ctx, l.cache, queries.AnalyticsKey(r), func(ctx context.Context) (*models.Analytics, error) {
		return l.q.FetchAnalytics(ctx, r)
	})
}

func (l loader) dashboard(ctx context.Context) (*models.Dashboard, error) {
	return querycache.Query(ctx, l.cache, queries.DashboardKey(), l.q.FetchDashboard)
}

func (l loader) settings(ctx context.Context) (models.SiteSettings, error) {
	return querycache.Query(ctx, l.cache, queries.SettingsKey(), l.q.FetchSettings)
}
