// Package envfile loads dotenv-style files (KEY=VALUE lines) into a
// model.Env without touching the process environment.
//
// Parsing is delegated to github.com/subosito/gotenv, which understands
// comments, quoting, "export" prefixes and ${VAR} expansion.
package envfile
