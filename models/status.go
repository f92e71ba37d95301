package models

import (
	"github.com/bradfitz/slice"
)

// StatusKind is the acknowledgement state of a single member
type StatusKind string

const (
	StatusAbsent     StatusKind = "absent"
	StatusReacted    StatusKind = "reacted"
	StatusLocked     StatusKind = "locked"
	StatusIrrelevant StatusKind = "irrelevant"
	StatusLeaved     StatusKind = "leaved"
)

// StatusKinds lists every kind in display order
var StatusKinds = []StatusKind{
	StatusReacted,
	StatusAbsent,
	StatusLocked,
	StatusIrrelevant,
	StatusLeaved,
}

// ParseStatusKind maps user input onto a StatusKind
func ParseStatusKind(s string) (StatusKind, bool) {
	for _, kind := range StatusKinds {
		if string(kind) == s {
			return kind, true
		}
	}
	return "", false
}

type MemberStatus struct {
	DisplayName string
	Status      StatusKind
}

// ReactionStatus maps user ids to their status for one evaluated message.
// It is a derived view and never persisted.
type ReactionStatus map[string]*MemberStatus

// Count returns how many members hold $kind
func (rs ReactionStatus) Count(kind StatusKind) (count int) {
	for _, member := range rs {
		if member.Status == kind {
			count++
		}
	}
	return count
}

// IDs returns the ids of all members holding $kind, ordered by display name then id
func (rs ReactionStatus) IDs(kind StatusKind) []string {
	ids := make([]string, 0)
	for id, member := range rs {
		if member.Status == kind {
			ids = append(ids, id)
		}
	}
	slice.Sort(ids, func(i, j int) bool {
		a, b := rs[ids[i]], rs[ids[j]]
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Names returns the display names matching IDs($kind)
func (rs ReactionStatus) Names(kind StatusKind) []string {
	ids := rs.IDs(kind)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = rs[id].DisplayName
	}
	return names
}
