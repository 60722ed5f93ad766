package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// DirectorySeed is the document loaded into the room and user directories at
// startup. Entries are upserted, so the same file may be applied repeatedly.
type DirectorySeed struct {
	Rooms []SeedRoom `json:"rooms" validate:"dive"`
	Users []SeedUser `json:"users" validate:"dive"`
}

type SeedRoom struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	Location  string `json:"location"`
	Capacity  int    `json:"capacity" validate:"gt=0"`
	IsDeleted bool   `json:"isDeleted"`
}

type SeedUser struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	IsDeleted bool   `json:"isDeleted"`
}

// DecodeDirectorySeed parses and validates a seed document. Unknown fields
// are rejected so that typos do not silently drop data.
func DecodeDirectorySeed(r io.Reader) (DirectorySeed, error) {
	var seed DirectorySeed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return DirectorySeed{}, fmt.Errorf("decode directory seed: %w", err)
	}
	if err := validator.New().Struct(seed); err != nil {
		return DirectorySeed{}, fmt.Errorf("validate directory seed: %w", err)
	}
	return seed, nil
}

// Apply upserts every room and user of the seed.
func (s DirectorySeed) Apply(ctx context.Context, rooms RoomRepository, users UserRepository) error {
	for _, r := range s.Rooms {
		room := Room{ID: r.ID, Name: r.Name, Location: r.Location, Capacity: r.Capacity, IsDeleted: r.IsDeleted}
		if err := rooms.UpsertRoom(ctx, room); err != nil {
			return fmt.Errorf("seed room %d: %w", r.ID, err)
		}
	}
	for _, u := range s.Users {
		user := User{ID: u.ID, Name: u.Name, Email: u.Email, IsDeleted: u.IsDeleted}
		if err := users.UpsertUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	return nil
}
