package ws

import "time"

// Event types pushed to clients.
const (
	TypeSystem = "system" // join/leave notices, moderation rejections
	TypeChat   = "chat"   // relayed chat message
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type SystemPayload struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

type ChatPayload struct {
	RoomID string `json:"room_id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	TSUnix int64  `json:"ts_unix"`
}

func systemNotice(roomID, text string) Message {
	return Message{Type: TypeSystem, Payload: SystemPayload{RoomID: roomID, Text: text}}
}

func chatMessage(roomID, sender, text string, at time.Time) Message {
	return Message{Type: TypeChat, Payload: ChatPayload{
		RoomID: roomID,
		Sender: sender,
		Text:   text,
		TSUnix: at.Unix(),
	}}
}
