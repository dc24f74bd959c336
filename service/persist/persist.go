package persist

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// DBID represents a database ID
type DBID string

// LastUpdatedTime represents the time a record was last updated
type LastUpdatedTime time.Time

// NullInt32 represents an int32 that may be null in the database. A null value reads as 0.
type NullInt32 int32

// GenerateID generates a application-wide unique ID
func GenerateID() DBID {
	id, err := ksuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return DBID(id.String())
}

func (d DBID) String() string {
	return string(d)
}

// DBIDsToStrings converts a list of DBIDs to their string representation
func DBIDsToStrings(ids []DBID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// StringsToDBIDs converts a list of strings to DBIDs
func StringsToDBIDs(strs []string) []DBID {
	out := make([]DBID, len(strs))
	for i, s := range strs {
		out[i] = DBID(s)
	}
	return out
}

// Time returns the time.Time representation of the LastUpdatedTime
func (l LastUpdatedTime) Time() time.Time {
	return time.Time(l)
}

// MarshalJSON returns the JSON representation of the LastUpdatedTime
func (l LastUpdatedTime) MarshalJSON() ([]byte, error) {
	return l.Time().MarshalJSON()
}

// UnmarshalJSON sets the LastUpdatedTime from the JSON representation
func (l *LastUpdatedTime) UnmarshalJSON(b []byte) error {
	t := time.Time{}
	err := json.Unmarshal(b, &t)
	if err != nil {
		return err
	}
	*l = LastUpdatedTime(t)
	return nil
}

// Int returns the int representation of the NullInt32
func (n NullInt32) Int() int {
	return int(n)
}

// Value implements the driver.Valuer interface for the NullInt32 type
func (n NullInt32) Value() (driver.Value, error) {
	return int64(n), nil
}

// Scan implements the Scanner interface for the NullInt32 type
func (n *NullInt32) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*n = 0
	case int64:
		*n = NullInt32(v)
	case int32:
		*n = NullInt32(v)
	default:
		return fmt.Errorf("cannot scan %T into NullInt32", value)
	}
	return nil
}
