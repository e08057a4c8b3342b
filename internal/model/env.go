package model

import (
	"sort"
	"strings"
)

// Env maps environment variable names to values.
//
// Env is the explicit form of a process environment: the launcher builds
// one, hands it to the child through exec.Cmd.Env and never writes it
// back to its own process.
type Env map[string]string

// EnvFromList parses KEY=VALUE entries as returned by os.Environ.
// Entries without "=" or with an empty key are skipped. The first "="
// separates key from value, so values may contain "=".
func EnvFromList(entries []string) Env {
	env := make(Env, len(entries))
	for _, kv := range entries {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// List returns the environment as KEY=VALUE entries sorted by key.
func (e Env) List() []string {
	keys := e.Keys()
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+e[k])
	}
	return list
}

// Keys returns the variable names in sorted order.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy. Cloning a nil Env yields an empty,
// non-nil Env.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Lookup reports the value of key and whether it is present.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}
