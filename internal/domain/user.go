// Package domain contains entity without logic, just meta-data
package domain

type UserID string

// UserRef is the wire shape of a user reference inside event payloads.
// Only the id is required; the rest is display data the clients pass along.
type UserRef struct {
	ID             UserID `json:"_id"`
	Username       string `json:"username,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// PersonalRoom is the room every bound connection of a user joins,
// used for direct "notify this user" delivery.
func (id UserID) PersonalRoom() RoomID {
	return RoomID(id)
}
