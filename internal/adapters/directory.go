package adapters

import (
	"context"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
)

// Directory serves the resource directory and identity store ports from the
// room and user repositories.
type Directory struct {
	rooms persistence.RoomRepository
	users persistence.UserRepository
}

var (
	_ application.ResourceDirectory = (*Directory)(nil)
	_ application.IdentityStore     = (*Directory)(nil)
)

func NewDirectory(rooms persistence.RoomRepository, users persistence.UserRepository) *Directory {
	return &Directory{rooms: rooms, users: users}
}

func (d *Directory) FindResource(ctx context.Context, id int64) (application.Resource, error) {
	room, err := d.rooms.GetRoom(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toResource(room), nil
}

func (d *Directory) ListResources(ctx context.Context) ([]application.Resource, error) {
	rooms, err := d.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Resource, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toResource(r))
	}
	return out, nil
}

func (d *Directory) FindIdentity(ctx context.Context, id int64) (application.Identity, error) {
	user, err := d.users.GetUser(ctx, id)
	if err != nil {
		return application.Identity{}, err
	}
	return toIdentity(user), nil
}

func (d *Directory) FindIdentities(ctx context.Context, ids []int64) ([]application.Identity, error) {
	users, err := d.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]application.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, toIdentity(u))
	}
	return out, nil
}
