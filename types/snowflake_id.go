package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// SnowflakeID is stored as BIGINT and travels as a JSON string so browsers
// do not lose precision.
type SnowflakeID int64

// ParseSnowflakeID parses the decimal form used in URLs and JSON.
func ParseSnowflakeID(s string) (SnowflakeID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake id %q: %w", s, err)
	}
	return SnowflakeID(v), nil
}

func (s SnowflakeID) String() string {
	return strconv.FormatInt(int64(s), 10)
}

func (s SnowflakeID) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SnowflakeID) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		*s = SnowflakeID(v)
	case []byte:
		parsed, err := ParseSnowflakeID(string(v))
		if err != nil {
			return err
		}
		*s = parsed
	case string:
		parsed, err := ParseSnowflakeID(v)
		if err != nil {
			return err
		}
		*s = parsed
	case nil:
		*s = 0
	default:
		return fmt.Errorf("cannot convert %T to SnowflakeID", value)
	}
	return nil
}

func (s SnowflakeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts both the string and the bare number form.
func (s *SnowflakeID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		parsed, err := ParseSnowflakeID(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var num int64
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid snowflake id format: %s", string(data))
	}
	*s = SnowflakeID(num)
	return nil
}
