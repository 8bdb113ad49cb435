package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ShiftType enumerates supported duty periods.
type ShiftType string

const (
	ShiftMorning   ShiftType = "MORNING"
	ShiftAfternoon ShiftType = "AFTERNOON"
	ShiftNight     ShiftType = "NIGHT"
	ShiftOnCall    ShiftType = "ON_CALL"
	ShiftStandby   ShiftType = "STANDBY"
)

// shiftTypeAliases maps external spellings onto canonical shift types. Legacy
// clients send Indonesian labels.
var shiftTypeAliases = map[string]ShiftType{
	"MORNING":   ShiftMorning,
	"PAGI":      ShiftMorning,
	"AFTERNOON": ShiftAfternoon,
	"SIANG":     ShiftAfternoon,
	"SORE":      ShiftAfternoon,
	"NIGHT":     ShiftNight,
	"MALAM":     ShiftNight,
	"ON_CALL":   ShiftOnCall,
	"ONCALL":    ShiftOnCall,
	"STANDBY":   ShiftStandby,
}

// ParseShiftType normalises an external shift-type spelling.
func ParseShiftType(raw string) (ShiftType, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if t, ok := shiftTypeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown shift type %q", raw)
}

// locationAliases maps external unit spellings onto canonical names.
var locationAliases = map[string]string{
	"UGD":           "EMERGENCY",
	"IGD":           "EMERGENCY",
	"GAWAT_DARURAT": "EMERGENCY",
	"RAWAT_INAP":    "GENERAL_WARD",
	"BANGSAL":       "GENERAL_WARD",
	"POLI":          "OUTPATIENT",
	"RAWAT_JALAN":   "OUTPATIENT",
}

// NormalizeLocation maps an external unit spelling onto its canonical name.
// Unknown locations pass through upper-cased so new units need no code change.
func NormalizeLocation(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if canonical, ok := locationAliases[key]; ok {
		return canonical
	}
	return key
}

// EqualLocation compares two unit spellings after normalisation.
func EqualLocation(a, b string) bool {
	return NormalizeLocation(a) == NormalizeLocation(b)
}

// ShiftAssignment represents one employee's scheduled duty.
type ShiftAssignment struct {
	ID              string    `db:"id" json:"id"`
	EmployeeID      string    `db:"employee_id" json:"employee_id"`
	Date            time.Time `db:"date" json:"date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	CrossesMidnight bool      `db:"crosses_midnight" json:"crosses_midnight"`
	Location        string    `db:"location" json:"location"`
	ShiftType       ShiftType `db:"shift_type" json:"shift_type"`
	RequiredRole    UserRole  `db:"required_role" json:"required_role"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the shift's [start,end) window in minutes from midnight of
// its date. Shifts crossing midnight extend past 1440.
func (s *ShiftAssignment) Interval() (start, end int, err error) {
	start, err = ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	end, err = ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("end time: %w", err)
	}
	if s.CrossesMidnight || end <= start {
		end += 24 * 60
	}
	return start, end, nil
}

// SameDay reports whether the shift falls on the given calendar date.
func (s *ShiftAssignment) SameDay(date time.Time) bool {
	y1, m1, d1 := s.Date.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}

// ShiftFilter describes query params for listing shift assignments.
type ShiftFilter struct {
	EmployeeID string
	Location   string
	ShiftType  ShiftType
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
