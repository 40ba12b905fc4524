// Package domain defines the persistence models for chat sessions, messages,
// preference profiles and bookmarks, plus the onboarding data model shared by
// the location selector, the onboarding wizard and the session controller.
// The persistence types are mapped with GORM; the same structs travel over
// the Supabase adapter as JSON rows.
package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound is returned by store adapters when a record does not exist or
// is not owned by the caller. Adapters translate their driver-specific
// not-found errors into this value.
var ErrNotFound = errors.New("record not found")

// Session is a conversation thread owned by a user.
//
// Fields:
//   - ID: UUID primary key (char(36)), stable for the life of the thread.
//   - UserID: identifier of the owner; indexed for sidebar listing.
//   - Title: human-readable title, "New chat" until renamed.
type Session struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_sessions"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'New chat'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is a single utterance within a session. CreatedAt is assigned by
// the session controller, not by the store, so that history order is the
// order in which the controller appended messages.
type Message struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Profile stores a user's onboarding preferences as a JSON document.
type Profile struct {
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);primaryKey"`
	Data      OnboardingData `json:"data"       gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Bookmark marks a college as saved by a user. A user bookmarks a given
// college at most once (unique index).
type Bookmark struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_bookmark_user_college"`
	CollegeID string    `json:"college_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_bookmark_user_college"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Bookmark.
func (Bookmark) TableName() string { return "bookmarks" }
