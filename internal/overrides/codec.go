// Package overrides implements the compact cookie codec for experiment
// variant overrides shared with the page-side SDK.
//
// Wire format: comma-separated entries of the form name:variant or
// name:variant.env.id for overrides of experiments not in the current
// context. Encoding is strict; decoding is permissive and skips malformed
// entries, since cookies arrive from outside the editor's control.
package overrides

import (
	"sort"
	"strconv"
	"strings"

	"github.com/absmartly/domeditor/internal/common"
)

// Override selects a variant for one experiment, optionally carrying the
// environment and experiment ids for experiments outside the current context.
type Override struct {
	Variant      int
	Env          int
	ExperimentID int
}

// Encode serializes overrides in sorted experiment-name order. Empty names
// are a caller bug and fail encoding.
func Encode(overrides map[string]Override) (string, error) {
	if len(overrides) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		if name == "" {
			return "", common.NewValidationError("experiment", name, "override experiment name must not be empty")
		}
		if strings.ContainsAny(name, ",:.") {
			return "", common.NewValidationError("experiment", name, "override experiment name must not contain ',', ':' or '.'")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		o := overrides[name]
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(o.Variant))
		if o.Env != 0 || o.ExperimentID != 0 {
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(o.Env))
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(o.ExperimentID))
		}
	}
	return b.String(), nil
}

// Decode parses a cookie value, skipping malformed entries.
func Decode(value string) map[string]Override {
	out := make(map[string]Override)
	if value == "" {
		return out
	}

	for _, entry := range strings.Split(value, ",") {
		name, rest, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			continue
		}

		parts := strings.Split(rest, ".")
		variant, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		o := Override{Variant: variant}
		if len(parts) >= 3 {
			env, errEnv := strconv.Atoi(parts[1])
			id, errID := strconv.Atoi(parts[2])
			if errEnv == nil && errID == nil {
				o.Env = env
				o.ExperimentID = id
			}
		}
		out[name] = o
	}
	return out
}
