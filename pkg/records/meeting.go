package records

import "encoding/binary"

// MeetingSize is the serialized size of a Meeting record:
// meeting id (8) + code (16) + title (128) + creator id (8) + created at
// (8) + started at (8) + ended at (8) + is active (1).
const MeetingSize = 8 + 16 + 128 + 8 + 8 + 8 + 8 + 1

// Meeting is a meeting record keyed by MeetingID in the meetings B+Tree and
// by its join code in the meeting-code hash table.
type Meeting struct {
	MeetingID   uint64
	MeetingCode string `validate:"required,max=15"`
	Title       string `validate:"required,max=127"`
	CreatorID   uint64
	CreatedAt   uint64
	StartedAt   uint64
	EndedAt     uint64
	IsActive    bool
}

// Validate checks the string fields against their on-disk limits.
func (m *Meeting) Validate() error {
	return checkValid("records.Meeting", m)
}

// SerializedSize returns MeetingSize.
func (m *Meeting) SerializedSize() int {
	return MeetingSize
}

// Serialize writes the record into the first MeetingSize bytes of buf.
func (m *Meeting) Serialize(buf []byte) error {
	if err := bufCheck("records.Meeting.Serialize", buf, MeetingSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[0:8], m.MeetingID)
	putString(buf[8:24], m.MeetingCode)
	putString(buf[24:152], m.Title)
	binary.LittleEndian.PutUint64(buf[152:160], m.CreatorID)
	binary.LittleEndian.PutUint64(buf[160:168], m.CreatedAt)
	binary.LittleEndian.PutUint64(buf[168:176], m.StartedAt)
	binary.LittleEndian.PutUint64(buf[176:184], m.EndedAt)
	if m.IsActive {
		buf[184] = 1
	} else {
		buf[184] = 0
	}
	return nil
}

// DeserializeMeeting reads a record from the first MeetingSize bytes of buf.
func DeserializeMeeting(buf []byte) (*Meeting, error) {
	if err := bufCheck("records.DeserializeMeeting", buf, MeetingSize); err != nil {
		return nil, err
	}
	return &Meeting{
		MeetingID:   binary.LittleEndian.Uint64(buf[0:8]),
		MeetingCode: getString(buf[8:24]),
		Title:       getString(buf[24:152]),
		CreatorID:   binary.LittleEndian.Uint64(buf[152:160]),
		CreatedAt:   binary.LittleEndian.Uint64(buf[160:168]),
		StartedAt:   binary.LittleEndian.Uint64(buf[168:176]),
		EndedAt:     binary.LittleEndian.Uint64(buf[176:184]),
		IsActive:    buf[184] == 1,
	}, nil
}
