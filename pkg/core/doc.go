// Package core defines the shared language of the Cascade system.
//
// This package contains:
//   - Domain records (Stage, Artifact, Column, TypeMapping)
//   - The Store interface implemented by internal/state
//   - Cascade run/report types
//
// The Golden Rule: pkg/core imports stdlib only.
// All other packages depend on core, not the reverse.
package core
