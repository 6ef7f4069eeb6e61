// Package release publishes a new release of a project.
//
// The version is read from the project's manifest and compared against the newest release on
// the hosting service (GitHub or GitLab). Only a strictly newer version is published, and only
// after the user confirmed it.
package release
