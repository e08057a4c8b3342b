// Package docker provides a thin Docker Engine API client used by the
// doctor command to confirm that a Docker daemon is reachable.
//
// Test suites launched with DOCKER_ENV=true usually talk to services
// running in containers (databases, queues). The launcher itself never
// starts containers; it only reports whether the daemon answers.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
