package policy

import (
	"strings"

	"github.com/louisbranch/decksim/internal/errors"
)

// Options tune the built-in policies. Scripted policies read their own
// configuration from the script file.
type Options struct {
	// PriorityCards and PriorityTraits mark the cards a run is evaluating
	// for; the greedy policy plays them ahead of cheaper cards.
	PriorityCards  []string
	PriorityTraits []string
}

// Lookup resolves a policy name from a run request into a Builder.
//
// Recognized names: "greedy" (the reference strategy), "passive", and
// "lua:<path>" for a script-driven policy. An unknown name is a
// configuration error; the run never starts.
func Lookup(name string, opts Options) (Builder, error) {
	switch {
	case name == "" || name == "greedy":
		return func() (Policy, error) {
			return &Greedy{
				PriorityCards:  opts.PriorityCards,
				PriorityTraits: opts.PriorityTraits,
			}, nil
		}, nil

	case name == "passive":
		return func() (Policy, error) { return Passive{}, nil }, nil

	case strings.HasPrefix(name, "lua:"):
		path := strings.TrimPrefix(name, "lua:")
		if strings.TrimSpace(path) == "" {
			return nil, errors.New(errors.CodePolicyScriptInvalid, "lua policy requires a script path")
		}
		// Probe the script once up front so configuration errors surface
		// before any trial runs.
		if _, err := NewLuaPolicy(name, path); err != nil {
			return nil, err
		}
		return func() (Policy, error) { return NewLuaPolicy(name, path) }, nil
	}

	return nil, errors.WithMetadata(errors.CodePolicyUnknown,
		"unknown policy "+name,
		map[string]string{"policy": name})
}
