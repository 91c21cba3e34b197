package records

import "encoding/binary"

// UserSize is the serialized size of a User record:
// user id (8) + email (128) + password hash (64) + username (64) +
// created at (8).
const UserSize = 8 + 128 + 64 + 64 + 8

// User is an account record keyed by UserID in the users B+Tree and by
// email in the login hash table.
type User struct {
	UserID       uint64
	Email        string `validate:"required,email,max=127"`
	PasswordHash string `validate:"required,max=64"`
	Username     string `validate:"required,max=63"`
	CreatedAt    uint64
}

// Validate checks the string fields against their on-disk limits.
func (u *User) Validate() error {
	return checkValid("records.User", u)
}

// SerializedSize returns UserSize.
func (u *User) SerializedSize() int {
	return UserSize
}

// Serialize writes the record into the first UserSize bytes of buf.
func (u *User) Serialize(buf []byte) error {
	if err := bufCheck("records.User.Serialize", buf, UserSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[0:8], u.UserID)
	putString(buf[8:136], u.Email)
	putString(buf[136:200], u.PasswordHash)
	putString(buf[200:264], u.Username)
	binary.LittleEndian.PutUint64(buf[264:272], u.CreatedAt)
	return nil
}

// DeserializeUser reads a record from the first UserSize bytes of buf.
func DeserializeUser(buf []byte) (*User, error) {
	if err := bufCheck("records.DeserializeUser", buf, UserSize); err != nil {
		return nil, err
	}
	return &User{
		UserID:       binary.LittleEndian.Uint64(buf[0:8]),
		Email:        getString(buf[8:136]),
		PasswordHash: getString(buf[136:200]),
		Username:     getString(buf[200:264]),
		CreatedAt:    binary.LittleEndian.Uint64(buf[264:272]),
	}, nil
}
