package records

import "encoding/binary"

// WhiteboardElementSize is the serialized size of a WhiteboardElement:
// element id (8) + meeting id (8) + user id (8) + element type (1) + four
// coordinates (8) + rgb (3) + stroke width (2) + text (256) + timestamp (8).
const WhiteboardElementSize = 8 + 8 + 8 + 1 + 8 + 3 + 2 + 256 + 8

// Element type tags.
const (
	ElementLine uint8 = iota
	ElementRect
	ElementCircle
	ElementText
)

// WhiteboardElement is a drawing primitive keyed by ElementID in the
// whiteboard B+Tree.
type WhiteboardElement struct {
	ElementID   uint64
	MeetingID   uint64
	UserID      uint64
	ElementType uint8 `validate:"lte=3"`
	X1, Y1      int16
	X2, Y2      int16
	ColorR      uint8
	ColorG      uint8
	ColorB      uint8
	StrokeWidth uint16
	Text        string `validate:"max=255"`
	Timestamp   uint64
}

// Validate checks the fields against their on-disk limits.
func (w *WhiteboardElement) Validate() error {
	return checkValid("records.WhiteboardElement", w)
}

// SerializedSize returns WhiteboardElementSize.
func (w *WhiteboardElement) SerializedSize() int {
	return WhiteboardElementSize
}

// Serialize writes the record into the first WhiteboardElementSize bytes
// of buf.
func (w *WhiteboardElement) Serialize(buf []byte) error {
	if err := bufCheck("records.WhiteboardElement.Serialize", buf, WhiteboardElementSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[0:8], w.ElementID)
	binary.LittleEndian.PutUint64(buf[8:16], w.MeetingID)
	binary.LittleEndian.PutUint64(buf[16:24], w.UserID)
	buf[24] = w.ElementType
	binary.LittleEndian.PutUint16(buf[25:27], uint16(w.X1))
	binary.LittleEndian.PutUint16(buf[27:29], uint16(w.Y1))
	binary.LittleEndian.PutUint16(buf[29:31], uint16(w.X2))
	binary.LittleEndian.PutUint16(buf[31:33], uint16(w.Y2))
	buf[33] = w.ColorR
	buf[34] = w.ColorG
	buf[35] = w.ColorB
	binary.LittleEndian.PutUint16(buf[36:38], w.StrokeWidth)
	putString(buf[38:294], w.Text)
	binary.LittleEndian.PutUint64(buf[294:302], w.Timestamp)
	return nil
}

// DeserializeWhiteboardElement reads a record from the first
// WhiteboardElementSize bytes of buf.
func DeserializeWhiteboardElement(buf []byte) (*WhiteboardElement, error) {
	if err := bufCheck("records.DeserializeWhiteboardElement", buf, WhiteboardElementSize); err != nil {
		return nil, err
	}
	return &WhiteboardElement{
		ElementID:   binary.LittleEndian.Uint64(buf[0:8]),
		MeetingID:   binary.LittleEndian.Uint64(buf[8:16]),
		UserID:      binary.LittleEndian.Uint64(buf[16:24]),
		ElementType: buf[24],
		X1:          int16(binary.LittleEndian.Uint16(buf[25:27])),
		Y1:          int16(binary.LittleEndian.Uint16(buf[27:29])),
		X2:          int16(binary.LittleEndian.Uint16(buf[29:31])),
		Y2:          int16(binary.LittleEndian.Uint16(buf[31:33])),
		ColorR:      buf[33],
		ColorG:      buf[34],
		ColorB:      buf[35],
		StrokeWidth: binary.LittleEndian.Uint16(buf[36:38]),
		Text:        getString(buf[38:294]),
		Timestamp:   binary.LittleEndian.Uint64(buf[294:302]),
	}, nil
}
