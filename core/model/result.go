package model

// FailureReason classifies why a dispatch operation produced no assignment.
type FailureReason string

const (
	// ReasonNoZone: no zone context was supplied and no candidate exists.
	ReasonNoZone FailureReason = "no_zone"
	// ReasonNoCandidates: a zone was supplied but no driver in it satisfies
	// the item requirements.
	ReasonNoCandidates FailureReason = "no_candidates"
	// ReasonDriverAlreadyAssigned: the chosen driver was taken by a
	// concurrent assignment before the commit completed.
	ReasonDriverAlreadyAssigned FailureReason = "driver_already_assigned"
	// ReasonPermissionDenied: the persistence port rejected a write.
	ReasonPermissionDenied FailureReason = "permission_denied"
	// ReasonError: an unclassified port failure.
	ReasonError FailureReason = "error"

	// ReasonNoAvailableDrivers: the geodistance search found no driver within
	// range at all.
	ReasonNoAvailableDrivers FailureReason = "no_available_drivers"
	// ReasonNoMatchingDrivers: drivers were in range but none passed the
	// rating or zone preference filters.
	ReasonNoMatchingDrivers FailureReason = "no_matching_drivers"
)

// AssignmentResult reports the outcome of an order assignment attempt.
type AssignmentResult struct {
	Success        bool          `json:"success"`
	DriverID       string        `json:"driver_id,omitempty"`
	ZoneID         string        `json:"zone_id,omitempty"`
	Score          float64       `json:"score,omitempty"`
	Reason         FailureReason `json:"reason,omitempty"`
	NotificationID string        `json:"notification_id,omitempty"`
}

// ScoredDriver pairs a driver with a search score and the distance at which
// it was found. Used by the geodistance search for candidates and alternatives.
type ScoredDriver struct {
	Driver     DriverStatusRecord `json:"driver"`
	Score      float64            `json:"score"`
	DistanceKm float64            `json:"distance_km"`
}

// SearchResult is the outcome of a geodistance best-driver search: the top
// pick plus up to three ranked alternatives. On failure Best is nil and
// Alternatives holds whatever survived the last successful filtering stage.
type SearchResult struct {
	Success      bool           `json:"success"`
	Best         *ScoredDriver  `json:"best,omitempty"`
	Alternatives []ScoredDriver `json:"alternatives,omitempty"`
	Reason       FailureReason  `json:"reason,omitempty"`
}
