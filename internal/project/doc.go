// Package project maps filesystem directories to czar projects.
//
// Project Representation:
//
// Each project is a directory tree with:
//   - Unique project ID (UUID)
//   - Project directory (absolute, captured at registration)
//   - Its own event log document, project-{uuid}
//
// Containment:
//
// A directory D belongs to project P when D equals P's directory or is a
// lexical descendant of it. The relative path from P to D decides:
//   - "."           equal, contained
//   - "../..."      outside, not contained
//   - anything else descendant, contained
//
// Registry:
//
// The Registry persists the project list as the project-list document:
//   - Register: idempotent, returns the owning project if one exists
//   - Resolve: find the single project containing a directory
//   - List: all projects in registration order
//
// Two registered projects containing the same directory is an integrity
// failure (ErrAmbiguousRegistry); Register refuses to create one.
package project
