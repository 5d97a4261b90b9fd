package model

import (
	"fmt"
	"strings"

	"github.com/aarondl/opt/null"
)

// PartitionPolicy selects how a lap is divided into mini-sectors.
type PartitionPolicy string

const (
	PolicyDistance PartitionPolicy = "distance"
	PolicyTime     PartitionPolicy = "time"
	PolicyAngle    PartitionPolicy = "angle"
)

func ParsePartitionPolicy(s string) (PartitionPolicy, error) {
	switch p := PartitionPolicy(strings.ToLower(s)); p {
	case PolicyDistance, PolicyTime, PolicyAngle:
		return p, nil
	}
	return "", fmt.Errorf("unknown partition policy %q", s)
}

// Segment is one mini-sector. Start is inclusive, End exclusive except for
// the last segment which includes its upper boundary.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"boundaryStart"`
	End   float64 `json:"boundaryEnd"`
}

type SegmentResult struct {
	SegmentIndex      int                `json:"segmentIndex"`
	FastestDriver     null.Val[string]   `json:"fastestDriver"`
	TimeSpentByDriver map[string]float64 `json:"timeSpentByDriver"`
}
