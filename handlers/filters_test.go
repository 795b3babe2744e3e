// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/yourviews/models"
)

func TestTopicCategories(t *testing.T) {
	topics := []models.Topic{
		{Title: "a", Category: "Sports"},
		{Title: "b", Category: "Tech"},
		{Title: "c", Category: "Sports"},
	}
	assert.Equal(t, []string{"all", "Sports", "Tech"}, topicCategories(topics))
	assert.Equal(t, []string{"all"}, topicCategories(nil))
}

func TestParseSort(t *testing.T) {
	tests := map[string]string{
		"":           models.SortNewest,
		"newest":     models.SortNewest,
		"oldest":     models.SortOldest,
		"most_voted": models.SortMostVoted,
		"random":     models.SortNewest,
	}
	for in, want := range tests {
		if got := parseSort(in); got != want {
			t.Errorf("parseSort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterPolls(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	desc := "Morning drinks"
	author := "Barista"
	polls := []models.Poll{
		{ID: "old", Title: "Tea?", CreatedAt: base, TotalVotes: 5, Description: &desc},
		{ID: "mid", Title: "Cats?", CreatedAt: base.Add(time.Hour), TotalVotes: 9},
		{ID: "new", Title: "Coffee?", CreatedAt: base.Add(2 * time.Hour), TotalVotes: 1, CreatedByName: &author},
	}

	ids := func(ps []models.Poll) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		order string
		want  []string
	}{
		{"newest", "", models.SortNewest, []string{"new", "mid", "old"}},
		{"oldest", "", models.SortOldest, []string{"old", "mid", "new"}},
		{"most voted", "", models.SortMostVoted, []string{"mid", "old", "new"}},
		{"title", "CATS", models.SortNewest, []string{"mid"}},
		{"description", "morning", models.SortNewest, []string{"old"}},
		{"author", "barista", models.SortNewest, []string{"new"}},
		{"no match", "zebra", models.SortNewest, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(filterPolls(polls, tt.query, tt.order)))
		})
	}

	assert.Equal(t, "old", polls[0].ID, "input must not be reordered")
}
