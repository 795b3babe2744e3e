// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queries

import (
	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/querycache"
)

// Cache keys. Anything under "polls" holds poll lists, so invalidating
// PollsKey() covers the featured poll and per-topic lists as well.

func TopicsKey() querycache.Key { return querycache.Key{"topics"} }

func TopicKey(id string) querycache.Key { return querycache.Key{"topic", id} }

func PollsKey() querycache.Key { return querycache.Key{"polls"} }

func TopicPollsKey(topicID string) querycache.Key {
	return querycache.Key{"polls", "topic", topicID}
}

func FeaturedPollKey() querycache.Key { return querycache.Key{"polls", "featured"} }

func PollKey(id string) querycache.Key { return querycache.Key{"poll", id} }

func HasVotedKey(pollID, userID string) querycache.Key {
	return querycache.Key{"hasVoted", pollID, userID}
}

func CommentsKey(pollID string) querycache.Key { return querycache.Key{"comments", pollID} }

func ProfileKey(userID string) querycache.Key { return querycache.Key{"profile", userID} }

func ActivityKey(userID string) querycache.Key { return querycache.Key{"activity", userID} }

func UsersKey() querycache.Key { return querycache.Key{"users"} }

func AnalyticsKey(r models.AnalyticsRange) querycache.Key {
	return querycache.Key{"analytics", string(r)}
}

func DashboardKey() querycache.Key { return querycache.Key{"analytics", "dashboard"} }

func SettingsKey() querycache.Key { return querycache.Key{"settings"} }

// VoteKeys lists what a successful vote makes stale.
func VoteKeys(pollID, userID string) []querycache.Key {
	return []querycache.Key{
		HasVotedKey(pollID, userID),
		PollKey(pollID),
		PollsKey(),
		ActivityKey(userID),
		{"analytics"},
	}
}

// PollWriteKeys lists what creating or toggling a poll makes stale.
func PollWriteKeys(pollID, userID string) []querycache.Key {
	keys := []querycache.Key{PollsKey(), TopicsKey(), {"topic"}, {"analytics"}}
	if pollID != "" {
		keys = append(keys, PollKey(pollID))
	}
	if userID != "" {
		keys = append(keys, ActivityKey(userID))
	}
	return keys
}

// ProfileKeys lists what a profile or account edit makes stale.
func ProfileKeys(userID string) []querycache.Key {
	return []querycache.Key{
		ProfileKey(userID),
		UsersKey(),
		{"analytics"},
		// Author names are embedded in polls and comments.
		PollsKey(),
		{"poll"},
		{"comments"},
	}
}

// TopicWriteKeys lists what creating or editing a topic makes stale.
func TopicWriteKeys(topicID string) []querycache.Key {
	keys := []querycache.Key{TopicsKey(), {"analytics"}}
	if topicID != "" {
		keys = append(keys, TopicKey(topicID))
	}
	return keys
}
