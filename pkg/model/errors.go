package model

import (
	"errors"
	"fmt"
)

// sentinels for errors.Is, the typed errors below carry the identifiers
var (
	ErrInsufficientGeometryData = errors.New("insufficient geometry data")
	ErrEmptyTrace               = errors.New("empty trace")
	ErrInvalidPartitionConfig   = errors.New("invalid partition config")
	ErrNoEligibleEntity         = errors.New("no eligible entity")
	ErrUpstreamData             = errors.New("upstream data error")
)

type InsufficientGeometryDataError struct {
	Driver      string
	ValidPoints int
}

func (e *InsufficientGeometryDataError) Error() string {
	return fmt.Sprintf("%v: driver %s has %d valid position samples, need at least 2",
		ErrInsufficientGeometryData, e.Driver, e.ValidPoints)
}

func (e *InsufficientGeometryDataError) Is(target error) bool {
	return target == ErrInsufficientGeometryData
}

type EmptyTraceError struct {
	Driver  string
	Channel Channel // empty if the provider delivered no trace at all
}

func (e *EmptyTraceError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%v: no telemetry for driver %s", ErrEmptyTrace, e.Driver)
	}
	return fmt.Sprintf("%v: driver %s has less than 2 valid %s samples",
		ErrEmptyTrace, e.Driver, e.Channel)
}

func (e *EmptyTraceError) Is(target error) bool {
	return target == ErrEmptyTrace
}

type InvalidPartitionConfigError struct {
	Count  int
	Policy PartitionPolicy
	Reason string
}

func (e *InvalidPartitionConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s (policy %q, segments %d)",
			ErrInvalidPartitionConfig, e.Reason, e.Policy, e.Count)
	}
	return fmt.Sprintf("%v: segment count %d must be >= 1 (policy %q)",
		ErrInvalidPartitionConfig, e.Count, e.Policy)
}

func (e *InvalidPartitionConfigError) Is(target error) bool {
	return target == ErrInvalidPartitionConfig
}

type NoEligibleEntityError struct {
	Entity   string // empty if no entity at all was eligible
	Grouping string // driver or team
}

func (e *NoEligibleEntityError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%v: no %s has a valid lap", ErrNoEligibleEntity, e.Grouping)
	}
	return fmt.Sprintf("%v: %s %s has no valid lap", ErrNoEligibleEntity, e.Grouping, e.Entity)
}

func (e *NoEligibleEntityError) Is(target error) bool {
	return target == ErrNoEligibleEntity
}

// UpstreamDataError wraps a failure of the telemetry provider unchanged.
type UpstreamDataError struct {
	Session SessionKey
	Err     error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("%v: session %s: %v", ErrUpstreamData, e.Session, e.Err)
}

func (e *UpstreamDataError) Is(target error) bool {
	return target == ErrUpstreamData
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}
