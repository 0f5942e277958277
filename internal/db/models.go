package db

import (
	"time"
)

// Room lifecycle states.
const (
	RoomStatusWaiting   = "waiting"   // only the creator is present
	RoomStatusActive    = "active"    // both members present
	RoomStatusDissolved = "dissolved" // archived; awaiting clear by both members
)

// Swipe directions.
const (
	SwipeLeft  = "left"
	SwipeRight = "right"
)

// User table. Email and PasswordHash are nullable because guest accounts
// carry neither until upgraded.
type User struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	Username     string  `gorm:"size:64;not null"`
	Email        *string `gorm:"uniqueIndex;size:128"`
	PasswordHash *string `gorm:"size:255"`
	Guest        bool    `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Room is a two-person matching session.
//
// Code is the short human-entry join code (unique). Filters holds the raw
// filter document as JSON text; unknown keys are preserved verbatim.
type Room struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Code         string `gorm:"uniqueIndex;size:8;not null"`
	Name         string `gorm:"size:64"`
	OwnerID      uint64 `gorm:"not null;index"`
	Status       string `gorm:"size:16;not null;default:waiting;index"`
	Filters      string `gorm:"type:text"`
	LastActiveAt time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// RoomMember joins a user to a room.
//
// Composite PK (RoomID, UserID) caps a user at one membership row per room.
// Active flips to false on soft-leave; the row stays so match eligibility
// keeps counting historical members. Cleared marks the member's own archive
// view as cleaned; a dissolved room is hard-deleted once every member row
// has Cleared set.
type RoomMember struct {
	RoomID    uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"primaryKey;index"`
	Active    bool   `gorm:"not null;default:true"`
	Cleared   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// StackEntry is one slot of a room's shared candidate ordering.
//
// Composite PK (RoomID, Position) keeps positions dense and unique;
// the builder guarantees MovieID is unique within a room.
type StackEntry struct {
	RoomID   uint64 `gorm:"primaryKey"`
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	MovieID  uint64 `gorm:"not null;index"`
}

// Swipe is one user's directional decision on one movie within one room.
//
// Composite PK (UserID, MovieID, RoomID) enforces a single row per
// decision; resubmission overwrites direction and timestamp.
// idx_room_movie_direction serves the distinct-right-swiper count in
// match detection.
type Swipe struct {
	UserID    uint64 `gorm:"primaryKey"`
	MovieID   uint64 `gorm:"primaryKey;index:idx_room_movie_direction,priority:2"`
	RoomID    uint64 `gorm:"primaryKey;index:idx_room_movie_direction,priority:1"`
	Direction string `gorm:"size:8;not null;index:idx_room_movie_direction,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Match records that every historical member of a room right-swiped a movie.
//
// Composite PK (RoomID, MovieID) is the authoritative guard against the
// concurrent double-insert race; the detector treats a conflicting insert
// as "no match created by me". Rows are permanent; only Watched mutates.
type Match struct {
	RoomID    uint64 `gorm:"primaryKey"`
	MovieID   uint64 `gorm:"primaryKey"`
	Watched   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Favorite is a user's saved movie, independent of rooms and matches.
type Favorite struct {
	UserID    uint64 `gorm:"primaryKey"`
	MovieID   uint64 `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
