package analytics

import (
	"math"
	"sort"

	"github.com/letieu/reddit-profiler/internal/reddit"
)

const TopSubredditLimit = 10

type SubredditCount struct {
	Subreddit string `json:"subreddit"`
	Count     int    `json:"count"`
}

// Stats summarizes a comment history for the dashboard.
type Stats struct {
	TotalComments    int              `json:"total_comments"`
	AvgScore         float64          `json:"avg_score"`
	UniqueSubreddits int              `json:"unique_subreddits"`
	TopSubreddits    []SubredditCount `json:"top_subreddits"`
}

// Compute derives Stats from comments. AvgScore is rounded to two decimals;
// TopSubreddits is ordered by count, then name.
func Compute(comments []reddit.Comment) Stats {
	stats := Stats{TotalComments: len(comments), TopSubreddits: []SubredditCount{}}
	if len(comments) == 0 {
		return stats
	}

	counts := make(map[string]int)
	total := 0
	for _, c := range comments {
		counts[c.Subreddit]++
		total += c.Score
	}

	stats.AvgScore = math.Round(float64(total)/float64(len(comments))*100) / 100
	stats.UniqueSubreddits = len(counts)

	for sub, n := range counts {
		stats.TopSubreddits = append(stats.TopSubreddits, SubredditCount{Subreddit: sub, Count: n})
	}
	sort.Slice(stats.TopSubreddits, func(i, j int) bool {
		a, b := stats.TopSubreddits[i], stats.TopSubreddits[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Subreddit < b.Subreddit
	})
	if len(stats.TopSubreddits) > TopSubredditLimit {
		stats.TopSubreddits = stats.TopSubreddits[:TopSubredditLimit]
	}

	return stats
}
