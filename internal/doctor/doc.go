// Package doctor provides preflight checks for a local test run.
//
// The checks validate:
//   - the test command resolves on PATH
//   - Node.js is installed and satisfies the configured version range
//   - jest is declared in package.json
//   - the jest config file named on the command line exists
//   - at least one env file is present
//   - a Docker daemon is reachable
//
// Every external interaction goes through Options so the checks can be
// exercised without Node.js or Docker installed.
package doctor
