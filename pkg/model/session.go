package model

import (
	"fmt"
	"strings"
)

// SessionKey identifies a session at the telemetry provider.
type SessionKey struct {
	Year    int    `json:"year"`
	Race    string `json:"race"`
	Session string `json:"session"` // R, Q, FP1, ...
}

func (k SessionKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Year, k.Race, strings.ToUpper(k.Session))
}

type Corner struct {
	Number   int     `json:"number"`
	Letter   string  `json:"letter"`
	Distance float64 `json:"distance"`
}

type Circuit struct {
	Corners []Corner `json:"corners"`
}

// SessionData is what the telemetry provider delivers for one session.
// Traces contain the fastest lap of each driver.
type SessionData struct {
	Key       SessionKey      `json:"key"`
	EventName string          `json:"eventName"`
	Circuit   Circuit         `json:"circuit"`
	Drivers   []DriverInfo    `json:"drivers"`
	Traces    []DriverTrace   `json:"traces"`
	Laps      []LapTimeRecord `json:"laps"`
}

// SessionRef is attached to every analysis result for display purposes.
type SessionRef struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}

func (s *SessionData) Ref() SessionRef {
	return SessionRef{Name: s.EventName, Year: s.Key.Year}
}

func (s *SessionData) Trace(code string) (*DriverTrace, bool) {
	for i := range s.Traces {
		if s.Traces[i].Driver.Code == code {
			return &s.Traces[i], true
		}
	}
	return nil, false
}

func (s *SessionData) Driver(code string) (DriverInfo, bool) {
	for _, d := range s.Drivers {
		if d.Code == code {
			return d, true
		}
	}
	if t, ok := s.Trace(code); ok {
		return t.Driver, true
	}
	return DriverInfo{Code: code}, false
}
