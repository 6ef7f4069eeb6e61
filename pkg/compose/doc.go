// Package compose discovers Docker Compose projects and wraps the `docker compose` commands
// docker-captain runs on them.
package compose
