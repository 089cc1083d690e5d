package vellum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Visibility controls who may read a paste. It is stored as a smallint;
// unknown stored values are a data-integrity error, never a panic.
type Visibility int

const (
	// VisibilityPublic pastes are listed and crawlable.
	VisibilityPublic Visibility = 0

	// VisibilityUnlisted pastes are readable by anyone with the link.
	VisibilityUnlisted Visibility = 1

	// VisibilityPrivate pastes are readable by their author only.
	VisibilityPrivate Visibility = 2
)

var visibilityNames = map[Visibility]string{
	VisibilityPublic:   "public",
	VisibilityUnlisted: "unlisted",
	VisibilityPrivate:  "private",
}

func VisibilityFromString(s string) (Visibility, error) {
	for v, name := range visibilityNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("vellum: unknown visibility %q", s)
}

func (v Visibility) String() string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

func (v Visibility) Valid() bool {
	_, ok := visibilityNames[v]
	return ok
}

func (v Visibility) Value() (driver.Value, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("vellum: refusing to store visibility %d", int(v))
	}
	return int64(v), nil
}

func (v *Visibility) Scan(src interface{}) error {
	var n int64
	switch s := src.(type) {
	case int64:
		n = s
	case []byte:
		if _, err := fmt.Sscanf(string(s), "%d", &n); err != nil {
			return &CorruptError{Detail: fmt.Sprintf("unreadable visibility %q", s)}
		}
	default:
		return fmt.Errorf("vellum: cannot scan %T into Visibility", src)
	}

	vis := Visibility(n)
	if !vis.Valid() {
		return &CorruptError{Detail: fmt.Sprintf("unknown visibility %d", n)}
	}
	*v = vis
	return nil
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Visibility) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := VisibilityFromString(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
