// Package domain holds shared domain primitives: strongly typed identifiers
// that keep change IDs and user IDs from being mixed up at call sites.
package domain

import "github.com/google/uuid"

// ChangeID identifies a change request.
type ChangeID uuid.UUID

func NewChangeID() ChangeID {
	return ChangeID(uuid.New())
}

// ParseChangeID validates and returns a ChangeID.
func ParseChangeID(s string) (ChangeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ChangeID{}, err
	}
	return ChangeID(u), nil
}

func (i ChangeID) String() string {
	return uuid.UUID(i).String()
}

func (i ChangeID) IsNil() bool {
	return uuid.UUID(i) == uuid.Nil
}

func (i ChangeID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *ChangeID) UnmarshalText(data []byte) error {
	parsed, err := ParseChangeID(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// UserID identifies a user (requester, approver, implementer or admin).
type UserID uuid.UUID

func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

func (i UserID) String() string {
	return uuid.UUID(i).String()
}

func (i UserID) IsNil() bool {
	return uuid.UUID(i) == uuid.Nil
}

func (i UserID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *UserID) UnmarshalText(data []byte) error {
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
