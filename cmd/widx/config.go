package main

import (
	"fmt"
	"os"
)

// envOr reads an environment variable, falling back to def when unset.
// Environment lookup is confined to this thin CLI layer; index.Build and
// index.NewQueryEngine always take explicit parameters.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// requireDirFlag reports an error when a directory flag came out empty
// after flags and their environment-variable fallbacks were both
// considered. This stands in for cobra's MarkFlagRequired, which only
// checks pflag's Changed bit (set when the flag is passed on the command
// line) and so would reject a value supplied purely via an env-var
// default, even though SPEC_FULL.md documents env vars as a first-class
// configuration path.
func requireDirFlag(flagName, value string) error {
	if value == "" {
		return fmt.Errorf("required flag(s) %q not set", flagName)
	}
	return nil
}
