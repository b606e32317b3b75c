// Package services implements the driving port interfaces.
//
// IngestService turns uploads into indexed chunks. CorrectionController
// answers questions by looping retrieval, generation and verification
// until the draft is grounded, stops improving, or the iteration budget
// runs out. SettingsService edits the persisted configuration.
//
// Services depend only on domain types and driven ports.
package services
