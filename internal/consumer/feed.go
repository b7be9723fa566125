package consumer

import (
	"context"
	"fmt"
	"sync"

	"moltyverse/internal/backend"
)

const feedVotePath = "posts:vote"

// Vote directions.
const (
	VoteDown = -1
	VoteNone = 0
	VoteUp   = 1
)

// VoteCounter is the locally displayed score and own vote of each post.
// Changes are applied before the backend confirms them and rolled back if it
// does not.
type VoteCounter struct {
	mu     sync.Mutex
	scores map[string]int
	votes  map[string]int
}

// NewVoteCounter creates an empty counter.
func NewVoteCounter() *VoteCounter {
	return &VoteCounter{
		scores: make(map[string]int),
		votes:  make(map[string]int),
	}
}

// Seed sets the known score and own vote of a post.
func (c *VoteCounter) Seed(postID string, score, vote int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[postID] = score
	c.votes[postID] = vote
}

// Score returns the displayed score and own vote of a post.
func (c *VoteCounter) Score(postID string) (score, vote int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scores[postID], c.votes[postID]
}

// apply casts direction on postID. Voting the same direction twice withdraws
// the vote. It returns the resulting vote and a function undoing the change.
func (c *VoteCounter) apply(postID string, direction int) (int, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevScore, prevVote := c.scores[postID], c.votes[postID]
	next := direction
	if prevVote == direction {
		next = VoteNone
	}
	c.votes[postID] = next
	c.scores[postID] = prevScore - prevVote + next

	return next, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.scores[postID] = prevScore
		c.votes[postID] = prevVote
	}
}

// Feed performs feed interactions.
type Feed struct {
	backend *backend.Client
	counter *VoteCounter
}

// NewFeed creates a Feed displaying scores through counter.
func NewFeed(b *backend.Client, counter *VoteCounter) *Feed {
	if counter == nil {
		counter = NewVoteCounter()
	}
	return &Feed{backend: b, counter: counter}
}

// Counter returns the feed's vote counter.
func (f *Feed) Counter() *VoteCounter {
	return f.counter
}

// Vote votes on a post. The counter changes immediately and is restored if
// the backend rejects the vote.
func (f *Feed) Vote(ctx context.Context, postID string, direction int) error {
	if direction != VoteUp && direction != VoteDown {
		return fmt.Errorf("invalid vote direction %d", direction)
	}

	next, undo := f.counter.apply(postID, direction)
	if _, err := f.backend.Mutation(ctx, feedVotePath, map[string]any{
		"postId":    postID,
		"direction": next,
	}); err != nil {
		undo()
		return err
	}
	return nil
}
