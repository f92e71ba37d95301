// Package raffle draws winners among the members that reacted to a message
package raffle

import (
	"math/rand"
	"sort"

	"github.com/Elantris/attention-please-sub000/models"
	"github.com/pkg/errors"
)

var (
	ErrNoReactedMembers = errors.New("no member reacted to the message")
	ErrInvalidCount     = errors.New("raffle count must be at least 1")
)

// Result holds the draw plus the remaining status lists, all as user ids
type Result struct {
	Winners    []string
	Losers     []string
	Locked     []string
	Absent     []string
	Irrelevant []string
	Leaved     []string
}

// Draw picks min($count, reacted) distinct winners among the reacted members
// of $status. The same $rng seed yields the same winners.
func Draw(status models.ReactionStatus, count int, rng *rand.Rand) (Result, error) {
	if count < 1 {
		return Result{}, ErrInvalidCount
	}

	reacted := make([]string, 0)
	for id, member := range status {
		if member.Status == models.StatusReacted {
			reacted = append(reacted, id)
		}
	}
	if len(reacted) == 0 {
		return Result{}, ErrNoReactedMembers
	}
	sort.Strings(reacted)

	n := len(reacted)
	if count > n {
		count = n
	}
	for i := 0; i < count; i++ {
		j := i + rng.Intn(n-i)
		reacted[i], reacted[j] = reacted[j], reacted[i]
	}

	return Result{
		Winners:    reacted[:count],
		Losers:     reacted[count:],
		Locked:     status.IDs(models.StatusLocked),
		Absent:     status.IDs(models.StatusAbsent),
		Irrelevant: status.IDs(models.StatusIrrelevant),
		Leaved:     status.IDs(models.StatusLeaved),
	}, nil
}
