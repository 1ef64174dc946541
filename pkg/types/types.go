// Package types defines the public wire format of the battery API. It is
// shared by the server, the client SDK and the CLI.
//
// Every CRUD response wraps its payload in an envelope with kind, apiVersion,
// metadata and spec fields. The range query endpoint is the exception and
// answers with one of the BatteryRange* shapes.
package types

import "time"

const (
	// APIVersion is the version string carried by every envelope.
	APIVersion = "vpp/v1"

	// KindBattery is the envelope kind of a single battery.
	KindBattery = "Battery"

	// KindBatteryList is the envelope kind of a battery page.
	KindBatteryList = "BatteryList"

	// RangeEmptyMessage is returned when a range query matches nothing.
	RangeEmptyMessage = "there are no batteries within the specified range"
)

// Resource is the standard envelope for a single API resource.
type Resource[T any] struct {
	Kind       string   `json:"kind"`
	APIVersion string   `json:"apiVersion"`
	Metadata   Metadata `json:"metadata"`
	Spec       T        `json:"spec"`
}

// Metadata carries identity and audit fields common to all resources.
type Metadata struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResourceList is the standard envelope for a page of resources.
type ResourceList[T any] struct {
	Kind       string        `json:"kind"`
	APIVersion string        `json:"apiVersion"`
	Metadata   ListMetadata  `json:"metadata"`
	Items      []Resource[T] `json:"items"`
}

// ListMetadata carries pagination information.
type ListMetadata struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Battery is the public representation of a battery.
type Battery struct {
	Name     string `json:"name"`
	Postcode string `json:"postcode"`
	Capacity int64  `json:"capacity"`
}

// CreateBatteryRequest is the body of POST /vpp/v1/batteries.
type CreateBatteryRequest struct {
	Name     string `json:"name"`
	Postcode string `json:"postcode"`
	Capacity int64  `json:"capacity"`
}

// BatteryRangeSummary is the range query response when batteries matched.
type BatteryRangeSummary struct {
	Batteries       []string `json:"batteries"`
	TotalCapacity   int64    `json:"totalCapacity"`
	AverageCapacity float64  `json:"averageCapacity"`
}

// BatteryRangeEmpty is the range query response when nothing matched.
type BatteryRangeEmpty struct {
	Message string `json:"message"`
}

// BatteryRangeError is the range query response for rejected or failed
// queries.
type BatteryRangeError struct {
	Error string `json:"error"`
}

// BatteryRangeResult decodes either successful range query response.
type BatteryRangeResult struct {
	Batteries       []string `json:"batteries,omitempty"`
	TotalCapacity   int64    `json:"totalCapacity,omitempty"`
	AverageCapacity float64  `json:"averageCapacity,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// Empty reports whether the query matched no batteries.
func (r BatteryRangeResult) Empty() bool {
	return len(r.Batteries) == 0
}

// ProblemDetail is an RFC 9457 problem response.
type ProblemDetail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
