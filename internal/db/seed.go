package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// curated popular movie ids used for demo stacks
var seedMovieIDs = []uint64{
	550, 680, 13, 155, 278, 238, 424, 389, 129, 497,
	637, 603, 27205, 157336, 118340, 293660, 299536, 299534, 475557, 496243,
}

// SeedTestData resets the database and populates it with a demo couple,
// a shared room with a stack, and enough swipes that one match exists.
func SeedTestData(db *gorm.DB) error {
	tables := []string{"favorites", "matches", "swipes", "stack_entries", "room_members", "rooms", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE rooms AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'rooms')")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	alexEmail := "alex@example.com"
	samEmail := "sam@example.com"
	usersToSeed := []User{
		{ID: 1, Username: "alex", Email: &alexEmail, PasswordHash: &hashStr},
		{ID: 2, Username: "sam", Email: &samEmail, PasswordHash: &hashStr},
		{ID: 3, Username: "casey", Guest: true},
	}
	if err := db.Create(&usersToSeed).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	room := Room{
		ID:           1,
		Code:         "DEMO42",
		Name:         "friday night",
		OwnerID:      1,
		Status:       RoomStatusActive,
		Filters:      `{"genres":[35,18],"min_rating":6.5}`,
		LastActiveAt: time.Now().UTC(),
	}
	if err := db.Create(&room).Error; err != nil {
		return fmt.Errorf("failed to seed room: %w", err)
	}

	members := []RoomMember{
		{RoomID: 1, UserID: 1, Active: true},
		{RoomID: 1, UserID: 2, Active: true},
	}
	if err := db.Create(&members).Error; err != nil {
		return fmt.Errorf("failed to seed members: %w", err)
	}

	entries := make([]StackEntry, len(seedMovieIDs))
	for i, movieID := range seedMovieIDs {
		entries[i] = StackEntry{RoomID: 1, Position: i, MovieID: movieID}
	}
	if err := db.Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to seed stack: %w", err)
	}

	// both members swipe a handful of movies; 550 ends up matched
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, userID := range []uint64{1, 2} {
		for _, movieID := range seedMovieIDs[:8] {
			direction := SwipeLeft
			if movieID == 550 || r.Intn(100) < 40 {
				direction = SwipeRight
			}
			swipe := Swipe{UserID: userID, MovieID: movieID, RoomID: 1, Direction: direction}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}, {Name: "room_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
			}).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
		}
	}

	match := Match{RoomID: 1, MovieID: 550}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
		return fmt.Errorf("failed to seed match: %w", err)
	}

	favs := []Favorite{
		{UserID: 1, MovieID: 278},
		{UserID: 2, MovieID: 550},
	}
	if err := db.Create(&favs).Error; err != nil {
		return fmt.Errorf("failed to seed favorites: %w", err)
	}

	log.Println("Seeded demo users, room, stack, swipes and match.")
	return nil
}
