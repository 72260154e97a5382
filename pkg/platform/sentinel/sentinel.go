package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrRunActive: a pipeline run already holds the run lock
// - ErrNoReport: no completed run report is available yet
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrRunActive = errors.New("run already active")
	ErrNoReport  = errors.New("no report available")
)
