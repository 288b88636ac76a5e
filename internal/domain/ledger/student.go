package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Validation errors shared by every boundary that accepts student data
// (bot commands and the dashboard alike).
var ErrInvalidInput = fmt.Errorf("invalid student input")
var ErrInvalidField = fmt.Errorf("unknown editable field")

// Student is a single roster record. The JSON tags are the persisted
// representation and must not change: data.json written by earlier
// deployments has to keep loading.
type Student struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	PIN      string `json:"pin"`
	Class    string `json:"class"`
	Age      int    `json:"age"`
	Year     int    `json:"year"`
	Points   int    `json:"points"`
}

// EditableFields is the fixed set of field names /edit_student accepts.
var EditableFields = []string{"full_name", "pin", "class", "age", "year", "points"}

// ParseStudent parses the pipe-delimited add_student payload:
// id|full_name|pin|class|age|year|points. Exactly seven fields; the three
// numeric fields must parse as integers and age must be non-negative.
func ParseStudent(raw string) (*Student, error) {
	if !strings.Contains(raw, "|") {
		return nil, ErrInvalidInput
	}
	parts := strings.Split(raw, "|")
	if len(parts) != 7 {
		return nil, ErrInvalidInput
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return nil, ErrInvalidInput
	}
	age, err := strconv.Atoi(parts[4])
	if err != nil || age < 0 {
		return nil, ErrInvalidInput
	}
	year, err := strconv.Atoi(parts[5])
	if err != nil {
		return nil, ErrInvalidInput
	}
	points, err := strconv.Atoi(parts[6])
	if err != nil {
		return nil, ErrInvalidInput
	}
	return &Student{
		ID:       parts[0],
		FullName: parts[1],
		PIN:      parts[2],
		Class:    parts[3],
		Age:      age,
		Year:     year,
		Points:   points,
	}, nil
}

// SetField overwrites a single editable field, validating numeric values.
// On any error the student is left unchanged.
func (s *Student) SetField(field, value string) error {
	switch field {
	case "full_name":
		s.FullName = value
	case "pin":
		s.PIN = value
	case "class":
		s.Class = value
	case "age":
		age, err := strconv.Atoi(value)
		if err != nil || age < 0 {
			return ErrInvalidInput
		}
		s.Age = age
	case "year":
		year, err := strconv.Atoi(value)
		if err != nil {
			return ErrInvalidInput
		}
		s.Year = year
	case "points":
		points, err := strconv.Atoi(value)
		if err != nil {
			return ErrInvalidInput
		}
		s.Points = points
	default:
		return ErrInvalidField
	}
	return nil
}
