// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package queries

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/yourviews/models"
)

// ErrInvalidResponse means the backend returned a row that breaks the
// entity's shape.
var ErrInvalidResponse = errors.New("invalid backend response")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidResponse}, args...)...)
}

// normalizePoll checks a poll and its options and recomputes TotalVotes.
func normalizePoll(p *models.Poll) error {
	if p.ID == "" {
		return invalid("poll without id")
	}
	if p.Options == nil {
		p.Options = []models.Option{}
	}
	for _, o := range p.Options {
		if o.ID == "" {
			return invalid("poll %s: option without id", p.ID)
		}
		if o.PollID != p.ID {
			return invalid("poll %s: option %s belongs to poll %s", p.ID, o.ID, o.PollID)
		}
		if o.VoteCount < 0 {
			return invalid("poll %s: option %s has negative vote count", p.ID, o.ID)
		}
	}
	p.TotalVotes = p.SumVotes()
	return nil
}

func normalizePolls(polls []models.Poll) ([]models.Poll, error) {
	if polls == nil {
		return []models.Poll{}, nil
	}
	for i := range polls {
		if err := normalizePoll(&polls[i]); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func validateTopic(t *models.Topic) error {
	if t.ID == "" {
		return invalid("topic without id")
	}
	if t.PollCount < 0 {
		return invalid("topic %s has negative poll count", t.ID)
	}
	return nil
}

func validateTopics(topics []models.Topic) ([]models.Topic, error) {
	if topics == nil {
		return []models.Topic{}, nil
	}
	for i := range topics {
		if err := validateTopic(&topics[i]); err != nil {
			return nil, err
		}
	}
	return topics, nil
}

func validateProfile(p *models.UserProfile) error {
	if p.UserID == "" {
		return invalid("profile without user id")
	}
	return nil
}

func validateComments(pollID string, comments []models.Comment) ([]models.Comment, error) {
	if comments == nil {
		return []models.Comment{}, nil
	}
	for _, c := range comments {
		if c.ID == "" {
			return nil, invalid("comment without id")
		}
		if pollID != "" && c.PollID != pollID {
			return nil, invalid("comment %s belongs to poll %s", c.ID, c.PollID)
		}
	}
	return comments, nil
}

func validateVotes(votes []models.UserVote) ([]models.UserVote, error) {
	if votes == nil {
		return []models.UserVote{}, nil
	}
	for _, v := range votes {
		if v.ID == "" || v.PollID == "" || v.OptionID == "" {
			return nil, invalid("vote with missing ids")
		}
	}
	return votes, nil
}

func validateAnalytics(a *models.Analytics) error {
	t := a.Totals
	if t.TotalUsers < 0 || t.TotalTopics < 0 || t.TotalPolls < 0 || t.ActivePolls < 0 || t.TotalVotes < 0 {
		return invalid("analytics totals must not be negative")
	}
	if t.ActivePolls > t.TotalPolls {
		return invalid("analytics reports %d active of %d polls", t.ActivePolls, t.TotalPolls)
	}
	for _, p := range a.TopPolls {
		if p.Votes < 0 {
			return invalid("poll %s has negative votes", p.PollID)
		}
	}
	return nil
}
