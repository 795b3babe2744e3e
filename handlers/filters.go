// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"sort"
	"strings"

	"github.com/danielhkuo/yourviews/models"
)

const (
	allCategories     = "all"
	featuredTopicsMax = 3
)

// topicCategories returns "all" followed by each category in first-seen order.
func topicCategories(topics []models.Topic) []string {
	seen := map[string]bool{}
	categories := []string{allCategories}
	for _, t := range topics {
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	return categories
}

// filterTopics matches query against title and description, case
// insensitively, within category ("" or "all" for every category).
func filterTopics(topics []models.Topic, query, category string) []models.Topic {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Topic{}
	for _, t := range topics {
		if category != "" && category != allCategories && t.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// parseSort accepts newest, oldest and most_voted; anything else is newest.
func parseSort(s string) string {
	switch s {
	case models.SortOldest, models.SortMostVoted:
		return s
	}
	return models.SortNewest
}

// filterPolls searches title, description and author name, then sorts.
// The input slice is left untouched.
func filterPolls(polls []models.Poll, query, order string) []models.Poll {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Poll{}
	for _, p := range polls {
		if q == "" || pollMatches(p, q) {
			out = append(out, p)
		}
	}

	switch order {
	case models.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case models.SortMostVoted:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalVotes > out[j].TotalVotes })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func pollMatches(p models.Poll, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if p.Description != nil && strings.Contains(strings.ToLower(*p.Description), q) {
		return true
	}
	return p.CreatedByName != nil && strings.Contains(strings.ToLower(*p.CreatedByName), q)
}
