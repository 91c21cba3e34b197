package records

import "encoding/binary"

// MessageSize is the serialized size of a Message record:
// message id (8) + meeting id (8) + user id (8) + username (64) + content
// (2048) + timestamp (8).
const MessageSize = 8 + 8 + 8 + 64 + 2048 + 8

// Message is a chat message record keyed by MessageID in the messages
// B+Tree; its keywords feed the chat-search hash table.
type Message struct {
	MessageID uint64
	MeetingID uint64
	UserID    uint64
	Username  string `validate:"max=63"`
	Content   string `validate:"required,max=2047"`
	Timestamp uint64
}

// Validate checks the string fields against their on-disk limits.
func (m *Message) Validate() error {
	return checkValid("records.Message", m)
}

// SerializedSize returns MessageSize.
func (m *Message) SerializedSize() int {
	return MessageSize
}

// Serialize writes the record into the first MessageSize bytes of buf.
func (m *Message) Serialize(buf []byte) error {
	if err := bufCheck("records.Message.Serialize", buf, MessageSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[0:8], m.MessageID)
	binary.LittleEndian.PutUint64(buf[8:16], m.MeetingID)
	binary.LittleEndian.PutUint64(buf[16:24], m.UserID)
	putString(buf[24:88], m.Username)
	putString(buf[88:2136], m.Content)
	binary.LittleEndian.PutUint64(buf[2136:2144], m.Timestamp)
	return nil
}

// DeserializeMessage reads a record from the first MessageSize bytes of buf.
func DeserializeMessage(buf []byte) (*Message, error) {
	if err := bufCheck("records.DeserializeMessage", buf, MessageSize); err != nil {
		return nil, err
	}
	return &Message{
		MessageID: binary.LittleEndian.Uint64(buf[0:8]),
		MeetingID: binary.LittleEndian.Uint64(buf[8:16]),
		UserID:    binary.LittleEndian.Uint64(buf[16:24]),
		Username:  getString(buf[24:88]),
		Content:   getString(buf[88:2136]),
		Timestamp: binary.LittleEndian.Uint64(buf[2136:2144]),
	}, nil
}
