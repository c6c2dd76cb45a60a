package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList хранит список строк (ссылки, файлы) в колонке JSONB.
type JSONList []string

// Value сериализует список для записи в базу.
func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan читает список из JSONB колонки.
func (l *JSONList) Scan(src interface{}) error {
	if src == nil {
		*l = JSONList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("models: неподдерживаемый тип для JSONList: %T", src)
	}
}
