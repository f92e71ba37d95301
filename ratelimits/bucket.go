package ratelimits

import (
	"sync"
	"time"
)

const (
	// How many keys a bucket holds when created
	BucketInitialFill = 8

	// The maximum amount of keys a user may possess
	BucketUpperBound = 8

	// How often a new key drips into a bucket
	DropInterval = 5 * time.Second
)

type bucket struct {
	keys    int
	updated time.Time
}

// UserBuckets limits how many commands a single user may issue in a row.
// Keys drip back in lazily whenever a bucket is looked at.
type UserBuckets struct {
	sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewUserBuckets() *UserBuckets {
	return &UserBuckets{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// refill must be called with the lock held
func (b *UserBuckets) refill(user string) *bucket {
	now := b.now()

	userBucket, ok := b.buckets[user]
	if !ok {
		userBucket = &bucket{keys: BucketInitialFill, updated: now}
		b.buckets[user] = userBucket
		return userBucket
	}

	drops := int(now.Sub(userBucket.updated) / DropInterval)
	if drops > 0 {
		userBucket.keys += drops
		if userBucket.keys > BucketUpperBound {
			userBucket.keys = BucketUpperBound
		}
		userBucket.updated = userBucket.updated.Add(time.Duration(drops) * DropInterval)
	}
	return userBucket
}

// Drain takes one key from $user, false if none are left
func (b *UserBuckets) Drain(user string) bool {
	b.Lock()
	defer b.Unlock()

	userBucket := b.refill(user)
	if userBucket.keys <= 0 {
		return false
	}
	userBucket.keys--
	return true
}

// Keys returns how many keys $user has left
func (b *UserBuckets) Keys(user string) int {
	b.Lock()
	defer b.Unlock()

	return b.refill(user).keys
}
