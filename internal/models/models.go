package models

import (
	"errors"
	"time"
)

// Question is the canonical shape served by the question endpoint.
// The store's internal row handle never appears here.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Votes     int       `json:"votes"`
	Hidden    bool      `json:"hidden"`
}

// ErrUnknownAction is returned for any action name outside the accepted set.
var ErrUnknownAction = errors.New("unknown_action")

// Action is the closed set of mutations a PATCH can request.
type Action int

const (
	ActionUpvote Action = iota + 1
	ActionHide
	ActionUnhide
)

// actionNames maps every accepted wire name to its action. Matching is exact
// and case-sensitive.
var actionNames = map[string]Action{
	"upvote":  ActionUpvote,
	"hide":    ActionHide,
	"mute":    ActionHide,
	"blind":   ActionHide,
	"unhide":  ActionUnhide,
	"unmute":  ActionUnhide,
	"unblind": ActionUnhide,
}

// ParseAction resolves a wire action name.
func ParseAction(name string) (Action, error) {
	a, ok := actionNames[name]
	if !ok {
		return 0, ErrUnknownAction
	}
	return a, nil
}

func (a Action) String() string {
	switch a {
	case ActionUpvote:
		return "upvote"
	case ActionHide:
		return "hide"
	case ActionUnhide:
		return "unhide"
	}
	return "unknown"
}
