package vellum

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Identifiers are 128-bit UUIDs rendered as 32 lowercase hex characters
// with no separators, which keeps them safe for use as on-disk path
// components. Parsing also accepts the conventional dashed form.

func renderID(u uuid.UUID) string {
	return hex.EncodeToString(u[:])
}

func parseID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return u, nil
}

func scanID(dest *uuid.UUID, src interface{}) error {
	switch v := src.(type) {
	case string:
		u, err := parseID(v)
		if err != nil {
			return err
		}
		*dest = u
		return nil
	case []byte:
		u, err := parseID(string(v))
		if err != nil {
			return err
		}
		*dest = u
		return nil
	}
	return fmt.Errorf("vellum: cannot scan %T into an identifier", src)
}

type PasteID uuid.UUID

func NewPasteID() PasteID {
	return PasteID(uuid.New())
}

func PasteIDFromString(s string) (PasteID, error) {
	u, err := parseID(s)
	return PasteID(u), err
}

func (id PasteID) String() string {
	return renderID(uuid.UUID(id))
}

func (id PasteID) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *PasteID) Scan(src interface{}) error {
	return scanID((*uuid.UUID)(id), src)
}

type FileID uuid.UUID

func NewFileID() FileID {
	return FileID(uuid.New())
}

func FileIDFromString(s string) (FileID, error) {
	u, err := parseID(s)
	return FileID(u), err
}

func (id FileID) String() string {
	return renderID(uuid.UUID(id))
}

func (id FileID) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *FileID) Scan(src interface{}) error {
	return scanID((*uuid.UUID)(id), src)
}

type UserID uuid.UUID

func NewUserID() UserID {
	return UserID(uuid.New())
}

func UserIDFromString(s string) (UserID, error) {
	u, err := parseID(s)
	return UserID(u), err
}

func (id UserID) String() string {
	return renderID(uuid.UUID(id))
}

func (id UserID) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *UserID) Scan(src interface{}) error {
	return scanID((*uuid.UUID)(id), src)
}

type DeletionKeyID uuid.UUID

func NewDeletionKeyID() DeletionKeyID {
	return DeletionKeyID(uuid.New())
}

func DeletionKeyIDFromString(s string) (DeletionKeyID, error) {
	u, err := parseID(s)
	return DeletionKeyID(u), err
}

func (id DeletionKeyID) String() string {
	return renderID(uuid.UUID(id))
}

func (id DeletionKeyID) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *DeletionKeyID) Scan(src interface{}) error {
	return scanID((*uuid.UUID)(id), src)
}

type APIKeyID uuid.UUID

func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.New())
}

func APIKeyIDFromString(s string) (APIKeyID, error) {
	u, err := parseID(s)
	return APIKeyID(u), err
}

func (id APIKeyID) String() string {
	return renderID(uuid.UUID(id))
}

func (id APIKeyID) Value() (driver.Value, error) {
	return id.String(), nil
}

func (id *APIKeyID) Scan(src interface{}) error {
	return scanID((*uuid.UUID)(id), src)
}
