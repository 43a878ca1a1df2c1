package main

import (
	"crypto/rand"
	"encoding/json"
	"time"
)

// RoomStore maps room ids to rooms. It is owned by the coordinator's
// dispatch loop and is never touched from another goroutine, so it carries
// no lock.
type RoomStore struct {
	rooms map[string]*Room
}

func newRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

func (s *RoomStore) get(id string) *Room {
	return s.rooms[id]
}

func (s *RoomStore) create(gameConfig json.RawMessage, images *ImagePackage) *Room {
	room := newRoom(s.newRoomID(), gameConfig, images)
	s.rooms[room.id] = room

	return room
}

func (s *RoomStore) delete(id string) {
	delete(s.rooms, id)
}

func (s *RoomStore) count() int {
	return len(s.rooms)
}

// expired returns rooms created before the cutoff, regardless of occupancy.
func (s *RoomStore) expired(cutoff time.Time) []*Room {
	var out []*Room
	for _, room := range s.rooms {
		if room.createdAt.Before(cutoff) {
			out = append(out, room)
		}
	}
	return out
}

// newRoomID generates a crypto-random join code and ensures it doesn't
// collide with an existing room.
func (s *RoomStore) newRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		if _, exists := s.rooms[id]; !exists {
			return id
		}
	}
}
