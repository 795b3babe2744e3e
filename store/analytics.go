// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/danielhkuo/yourviews/models"
)

const (
	topPollsLimit = 10
	notSpecified  = "Not specified"
	uncategorized = "Uncategorized"
)

// Analytics aggregates activity since the given time. A zero time covers
// everything.
func (s *Store) Analytics(ctx context.Context, since time.Time) (*models.Analytics, error) {
	since = since.UTC()
	a := &models.Analytics{}

	if err := s.analyticsTotals(ctx, since, &a.Totals); err != nil {
		return nil, err
	}

	var err error
	if a.TopPolls, err = s.topPolls(ctx, since); err != nil {
		return nil, err
	}
	if a.TopicDistribution, err = s.topicDistribution(ctx, since); err != nil {
		return nil, err
	}
	if a.Engagement, err = s.engagement(ctx, since); err != nil {
		return nil, err
	}
	if a.Demographics, err = s.demographics(ctx, since); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Store) analyticsTotals(ctx context.Context, since time.Time, t *models.Totals) error {
	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM user_profile WHERE created_at >= $1`, []any{since}, &t.TotalUsers},
		{`SELECT COUNT(*) FROM topic WHERE created_at >= $1`, []any{since}, &t.TotalTopics},
		{`SELECT COUNT(*) FROM poll_item WHERE created_at >= $1`, []any{since}, &t.TotalPolls},
		{`SELECT COUNT(*) FROM poll_item WHERE created_at >= $1 AND is_active = $2`, []any{since, true}, &t.ActivePolls},
		{`SELECT COUNT(*) FROM user_vote WHERE voted_at >= $1`, []any{since}, &t.TotalVotes},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return dbError(err)
		}
	}

	if t.TotalPolls > 0 {
		t.AvgVotesPerPoll = (t.TotalVotes + t.TotalPolls/2) / t.TotalPolls
	}
	return nil
}

func (s *Store) topPolls(ctx context.Context, since time.Time) ([]models.PollVotes, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, COALESCE(SUM(o.vote_count), 0) AS votes
		FROM poll_item p
		LEFT JOIN poll_option o ON o.poll_id = p.id
		WHERE p.created_at >= $1
		GROUP BY p.id, p.title, p.created_at
		ORDER BY votes DESC, p.created_at DESC
		LIMIT $2
	`, since, topPollsLimit)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	top := []models.PollVotes{}
	for rows.Next() {
		var pv models.PollVotes
		if err := rows.Scan(&pv.PollID, &pv.Name, &pv.Votes); err != nil {
			return nil, dbError(err)
		}
		top = append(top, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return top, nil
}

func (s *Store) topicDistribution(ctx context.Context, since time.Time) ([]models.Bucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.title, COUNT(p.id)
		FROM poll_item p
		LEFT JOIN topic t ON t.id = p.topic_id
		WHERE p.created_at >= $1
		GROUP BY t.title
	`, since)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			title sql.NullString
			n     int
		)
		if err := rows.Scan(&title, &n); err != nil {
			return nil, dbError(err)
		}
		label := uncategorized
		if title.Valid {
			label = title.String
		}
		counts[label] += n
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return sortedBuckets(counts), nil
}

// engagement counts votes per calendar month (UTC), oldest first.
func (s *Store) engagement(ctx context.Context, since time.Time) ([]models.EngagementPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT voted_at FROM user_vote WHERE voted_at >= $1`, since)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	months := map[string]int{}
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, dbError(err)
		}
		months[at.UTC().Format("2006-01")]++
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}

	points := make([]models.EngagementPoint, 0, len(months))
	for period, votes := range months {
		points = append(points, models.EngagementPoint{Period: period, Votes: votes})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

func (s *Store) demographics(ctx context.Context, since time.Time) (models.Demographics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT age, gender, education, location FROM user_profile WHERE created_at >= $1
	`, since)
	if err != nil {
		return models.Demographics{}, dbError(err)
	}
	defer rows.Close()

	gender, ages, education, location := map[string]int{}, map[string]int{}, map[string]int{}, map[string]int{}
	for rows.Next() {
		var (
			age         sql.NullInt64
			g, edu, loc sql.NullString
		)
		if err := rows.Scan(&age, &g, &edu, &loc); err != nil {
			return models.Demographics{}, dbError(err)
		}
		gender[labelOrDefault(g)]++
		education[labelOrDefault(edu)]++
		location[labelOrDefault(loc)]++
		ages[AgeGroup(intPtr(age))]++
	}
	if err := rows.Err(); err != nil {
		return models.Demographics{}, dbError(err)
	}

	return models.Demographics{
		Gender:    sortedBuckets(gender),
		AgeGroups: sortedBuckets(ages),
		Education: sortedBuckets(education),
		Location:  sortedBuckets(location),
	}, nil
}

// AgeGroup returns the reporting bracket for an age.
func AgeGroup(age *int) string {
	if age == nil {
		return notSpecified
	}
	switch a := *age; {
	case a < 18:
		return "Under 18"
	case a < 25:
		return "18-24"
	case a < 35:
		return "25-34"
	case a < 45:
		return "35-44"
	case a < 55:
		return "45-54"
	case a < 65:
		return "55-64"
	default:
		return "65+"
	}
}

func labelOrDefault(ns sql.NullString) string {
	if !ns.Valid || ns.String == "" {
		return notSpecified
	}
	return ns.String
}

// sortedBuckets orders buckets by count descending, then label.
func sortedBuckets(counts map[string]int) []models.Bucket {
	buckets := make([]models.Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, models.Bucket{Label: label, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}
