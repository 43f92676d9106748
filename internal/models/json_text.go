package models

import (
	"database/sql/driver"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONText is a JSON document column. It is declared jsonb on postgres and
// text elsewhere, since SQLite gives a jsonb column numeric affinity and
// would store scalar documents such as 0.2 as REAL.
type JSONText datatypes.JSON

// Value implements driver.Valuer.
func (j JSONText) Value() (driver.Value, error) {
	return datatypes.JSON(j).Value()
}

// Scan implements sql.Scanner. Numeric and boolean values left behind by a
// numeric-affinity column are read back as their JSON text.
func (j *JSONText) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case int64:
		value = strconv.FormatInt(v, 10)
	case float64:
		value = strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		value = strconv.FormatBool(v)
	}
	return (*datatypes.JSON)(j).Scan(value)
}

// MarshalJSON emits the stored document unchanged.
func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// GormDataType returns the generic data type.
func (JSONText) GormDataType() string {
	return "json"
}

// GormDBDataType returns the column type for the active dialect.
func (JSONText) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
