package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvLookup reads the given .env files and returns a lookup that prefers
// the process environment, then the files in order. Missing files are an
// error; the process environment is not modified.
func DotEnvLookup(paths ...string) (LookupFunc, error) {
	values := make(map[string]string)
	for _, path := range paths {
		file, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range file {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := values[name]
		return v, ok
	}, nil
}

// WithDotEnv layers the given .env files under the process environment for
// expansion. Read errors surface from Load.
func WithDotEnv(paths ...string) LoaderOption {
	return func(l *Loader) {
		if len(paths) == 0 {
			return
		}
		lookup, err := DotEnvLookup(paths...)
		if err != nil {
			l.err = err
			return
		}
		l.Lookup = lookup
	}
}
