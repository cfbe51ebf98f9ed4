// Package model holds the domain types shared by the sync layer, the
// markup translator, and the Slack adapter.
package model

import (
	"strconv"
	"strings"
)

// Channel is a conversation the workspace exposes. Identity is ID.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}

// Message is a single channel message. TS is both the identifier and the
// ordering key within a channel.
type Message struct {
	TS       string
	AuthorID string
	Text     string
}

// User is a resolved workspace member.
type User struct {
	ID          string
	DisplayName string
}

// UserFields carries the raw name fields returned by a user lookup, in the
// order they are consulted when picking a display name.
type UserFields struct {
	ID                 string
	RealName           string
	ProfileRealName    string
	ProfileDisplayName string
	Name               string
}

// DisplayName picks the first non-empty name field, falling back to the ID.
func (u UserFields) DisplayName() string {
	for _, s := range []string{u.RealName, u.ProfileRealName, u.ProfileDisplayName, u.Name} {
		if s != "" {
			return s
		}
	}
	return u.ID
}

// Membership is the operator's relationship to a watched channel.
type Membership int

const (
	MembershipUnknown Membership = iota
	MembershipMember
	MembershipNotMember
)

func (m Membership) String() string {
	switch m {
	case MembershipMember:
		return "member"
	case MembershipNotMember:
		return "not_member"
	default:
		return "unknown"
	}
}

// CompareTS orders two message timestamps numerically. Timestamps are
// decimal strings ("1700000000.000100"); the integer part is compared by
// value and the fractional part digit by digit.
func CompareTS(a, b string) int {
	ai, af := splitTS(a)
	bi, bf := splitTS(b)

	an, aerr := strconv.ParseUint(ai, 10, 64)
	bn, berr := strconv.ParseUint(bi, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
	} else if c := strings.Compare(padLeft(ai, len(bi)), padLeft(bi, len(ai))); c != 0 {
		return c
	}

	// Right-pad fractions so "5" and "50" compare equal.
	n := max(len(af), len(bf))
	return strings.Compare(padRight(af, n), padRight(bf, n))
}

func splitTS(ts string) (string, string) {
	i, f, _ := strings.Cut(ts, ".")
	return i, f
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat("0", n-len(s))
}
