package policy

import (
	lua "github.com/Shopify/go-lua"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/errors"
)

// LuaPolicy runs a user-supplied Lua script at each choice point, so
// external callers can experiment with strategies without engine changes.
//
// The script may define two global functions, both optional:
//
//	function mulligan(hand) ... end       -- returns 1-based hand indices
//	function plays(view, legal) ... end   -- returns 1-based indices into legal
//
// hand is an array of card tables {id, name, cost, traits}. view carries
// {round, resources, library, hand, flags}. legal is an array of card tables
// extended with the hand index. A script error during a decision resolves to
// "no action"; the trial records the consequences rather than failing.
//
// A LuaPolicy owns its interpreter state and must not be shared across
// goroutines; the runner builds one per worker.
type LuaPolicy struct {
	name  string
	state *lua.State

	hasMulligan bool
	hasPlays    bool
}

// NewLuaPolicy loads and runs a policy script. Load or syntax failures are
// configuration errors: the run never starts.
func NewLuaPolicy(name, path string) (*LuaPolicy, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, errors.Wrap(errors.CodePolicyScriptInvalid,
			"load policy script "+path, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, errors.Wrap(errors.CodePolicyScriptInvalid,
			"run policy script "+path, err)
	}

	p := &LuaPolicy{name: name, state: state}
	p.hasMulligan = p.globalIsFunction("mulligan")
	p.hasPlays = p.globalIsFunction("plays")
	if !p.hasMulligan && !p.hasPlays {
		return nil, errors.WithMetadata(errors.CodePolicyScriptInvalid,
			"policy script defines neither mulligan nor plays",
			map[string]string{"path": path})
	}
	return p, nil
}

// Name implements Policy.
func (p *LuaPolicy) Name() string { return p.name }

// Mulligan implements Policy.
func (p *LuaPolicy) Mulligan(v View) []int {
	if !p.hasMulligan {
		return nil
	}
	p.state.Global("mulligan")
	pushCards(p.state, v.Hand, false)
	if err := p.state.ProtectedCall(1, 1, 0); err != nil {
		p.state.SetTop(0)
		return nil
	}
	indices := popIndices(p.state)
	var out []int
	for _, idx := range indices {
		out = append(out, idx-1) // Lua tables are 1-based
	}
	return out
}

// Plays implements Policy.
func (p *LuaPolicy) Plays(v View, legal []Action) []Action {
	if !p.hasPlays || len(legal) == 0 {
		return nil
	}
	p.state.Global("plays")
	pushView(p.state, v)
	pushActions(p.state, legal)
	if err := p.state.ProtectedCall(2, 1, 0); err != nil {
		p.state.SetTop(0)
		return nil
	}
	indices := popIndices(p.state)
	var out []Action
	for _, idx := range indices {
		if idx >= 1 && idx <= len(legal) {
			out = append(out, legal[idx-1])
		}
	}
	return out
}

func (p *LuaPolicy) globalIsFunction(name string) bool {
	p.state.Global(name)
	defined := p.state.TypeOf(-1) == lua.TypeFunction
	p.state.Pop(1)
	return defined
}

// pushCards pushes an array table of card tables. When withIndex is set each
// card table also carries its hand index (1-based, matching Lua idiom).
func pushCards(state *lua.State, cards []card.Definition, withIndex bool) {
	state.NewTable()
	for i, c := range cards {
		pushCard(state, c, i+1, withIndex)
		state.RawSetInt(-2, i+1)
	}
}

func pushCard(state *lua.State, c card.Definition, index int, withIndex bool) {
	state.NewTable()
	state.PushString(c.ID)
	state.SetField(-2, "id")
	state.PushString(c.Name)
	state.SetField(-2, "name")
	state.PushInteger(c.Cost)
	state.SetField(-2, "cost")
	state.NewTable()
	for j, trait := range c.Traits {
		state.PushString(trait)
		state.RawSetInt(-2, j+1)
	}
	state.SetField(-2, "traits")
	if withIndex {
		state.PushInteger(index)
		state.SetField(-2, "hand_index")
	}
}

func pushView(state *lua.State, v View) {
	state.NewTable()
	state.PushInteger(v.Round)
	state.SetField(-2, "round")
	state.PushInteger(v.Resources)
	state.SetField(-2, "resources")
	state.PushInteger(v.LibraryCount)
	state.SetField(-2, "library")
	pushCards(state, v.Hand, false)
	state.SetField(-2, "hand")
	state.NewTable()
	for name, set := range v.Flags {
		state.PushBoolean(set)
		state.SetField(-2, name)
	}
	state.SetField(-2, "flags")
}

func pushActions(state *lua.State, legal []Action) {
	state.NewTable()
	for i, act := range legal {
		pushCard(state, act.Card, act.HandIndex+1, true)
		state.RawSetInt(-2, i+1)
	}
}

// popIndices reads an array table of integers off the stack top. Anything
// that is not a table of numbers yields nil.
func popIndices(state *lua.State) []int {
	defer state.SetTop(0)
	if state.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	length := state.RawLength(-1)
	var out []int
	for i := 1; i <= length; i++ {
		state.RawGetInt(-1, i)
		if n, ok := state.ToNumber(-1); ok {
			out = append(out, int(n))
		}
		state.Pop(1)
	}
	return out
}
