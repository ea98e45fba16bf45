package model

import "time"

// RoomType classifies what a room is equipped for.  The engine itself only
// cares about capacity, but the type is carried so that alternative-room
// suggestions can be filtered by the caller if needed.
type RoomType string

const (
	RoomLectureHall RoomType = "LECTURE_HALL"
	RoomLab         RoomType = "LAB"
	RoomSeminar     RoomType = "SEMINAR"
	RoomAuditorium  RoomType = "AUDITORIUM"
)

// Building groups rooms for availability queries.  The availability cache is
// keyed by (building, date), so the building is the unit of invalidation.
type Building struct {
	ID        uint64    // buildings.id
	Name      string    // buildings.name
	Code      string    // buildings.code (short label, e.g. "ENG-B")
	CreatedAt time.Time // buildings.created_at
}

// Room is one bookable physical room.  Rooms are catalog data: the engine
// reads them but never writes them.
//
// Fields:
//  ID         – primary key identifier.
//  BuildingID – building the room belongs to.
//  Name       – human readable name, e.g. "ENG-B 204".
//  Capacity   – static seating capacity used for capacity checks and
//               alternative-room ordering.
//  RoomType   – equipment classification.
//  IsActive   – inactive rooms are never suggested and cells in them are
//               rejected at submission.
type Room struct {
	ID         uint64    // rooms.id
	BuildingID uint64    // rooms.building_id
	Name       string    // rooms.name
	Capacity   uint32    // rooms.capacity
	RoomType   RoomType  // rooms.room_type
	IsActive   bool      // rooms.is_active
	CreatedAt  time.Time // rooms.created_at
}
