package catalog

import (
	"fmt"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/errors"
)

// Effect kinds accepted in catalog files. The set mirrors the resolver's
// closed variants; an unknown kind is rejected at load time so it can never
// surface as a mid-trial logic fault.
const (
	kindDraw         = "draw"
	kindGainResource = "gain_resource"
	kindDiscard      = "discard"
	kindSetFlag      = "set_flag"
	kindConditional  = "conditional"
	kindSequence     = "sequence"

	kindResourcesAtLeast = "resources_at_least"
	kindHandSizeAtLeast  = "hand_size_at_least"
	kindFlagSet          = "flag_set"

	kindSelectCheapest = "select_cheapest"
	kindSelectTrait    = "select_trait"
	kindSelectRandom   = "select_random"
)

// violations accumulates translation errors so one load reports every
// problem in the file, not just the first.
type violations struct {
	code errors.Code
	msgs []string
}

func (v *violations) add(code errors.Code, format string, args ...any) {
	if v.code == "" {
		v.code = code
	}
	v.msgs = append(v.msgs, fmt.Sprintf(format, args...))
}

func (v *violations) err(path string) error {
	if len(v.msgs) == 0 {
		return nil
	}
	msg := v.msgs[0]
	for _, m := range v.msgs[1:] {
		msg += "; " + m
	}
	return errors.WithMetadata(v.code, "invalid catalog: "+msg, map[string]string{
		"path":       path,
		"violations": fmt.Sprintf("%d", len(v.msgs)),
	})
}

func translateEffect(at string, raw *rawEffect, v *violations) card.Effect {
	if raw == nil {
		return nil
	}
	switch raw.Kind {
	case kindDraw:
		if raw.N == nil || *raw.N <= 0 {
			v.add(errors.CodeEffectInvalidArgs, "%s: draw needs n >= 1", at)
			return nil
		}
		return card.Draw{N: *raw.N}

	case kindGainResource:
		if raw.N == nil || *raw.N == 0 {
			v.add(errors.CodeEffectInvalidArgs, "%s: gain_resource needs non-zero n", at)
			return nil
		}
		return card.GainResource{N: *raw.N}

	case kindDiscard:
		sel := translateSelector(at+".selector", raw.Selector, v)
		if sel == nil {
			return nil
		}
		return card.DiscardCards{Selector: sel}

	case kindSetFlag:
		if raw.Flag == "" {
			v.add(errors.CodeEffectInvalidArgs, "%s: set_flag needs flag name", at)
			return nil
		}
		value := true
		if raw.Value != nil {
			value = *raw.Value
		}
		return card.SetFlag{Name: raw.Flag, Value: value}

	case kindConditional:
		pred := translatePredicate(at+".if", raw.If, v)
		then := translateEffect(at+".then", raw.Then, v)
		els := translateEffect(at+".else", raw.Else, v)
		if pred == nil {
			return nil
		}
		if then == nil && els == nil {
			v.add(errors.CodeEffectInvalidArgs, "%s: conditional needs then or else", at)
			return nil
		}
		return card.Conditional{If: pred, Then: then, Else: els}

	case kindSequence:
		if len(raw.Effects) == 0 {
			v.add(errors.CodeEffectInvalidArgs, "%s: sequence needs effects", at)
			return nil
		}
		effects := make([]card.Effect, 0, len(raw.Effects))
		for i := range raw.Effects {
			eff := translateEffect(fmt.Sprintf("%s.effects[%d]", at, i), &raw.Effects[i], v)
			if eff != nil {
				effects = append(effects, eff)
			}
		}
		return card.Sequence{Effects: effects}

	case "":
		v.add(errors.CodeEffectUnknownKind, "%s: effect missing kind", at)
		return nil
	default:
		v.add(errors.CodeEffectUnknownKind, "%s: unknown effect kind %q", at, raw.Kind)
		return nil
	}
}

func translatePredicate(at string, raw *rawPredicate, v *violations) card.Predicate {
	if raw == nil {
		v.add(errors.CodeEffectInvalidArgs, "%s: conditional needs a predicate", at)
		return nil
	}
	switch raw.Kind {
	case kindResourcesAtLeast:
		if raw.N == nil {
			v.add(errors.CodeEffectInvalidArgs, "%s: resources_at_least needs n", at)
			return nil
		}
		return card.ResourcesAtLeast{N: *raw.N}
	case kindHandSizeAtLeast:
		if raw.N == nil {
			v.add(errors.CodeEffectInvalidArgs, "%s: hand_size_at_least needs n", at)
			return nil
		}
		return card.HandSizeAtLeast{N: *raw.N}
	case kindFlagSet:
		if raw.Flag == "" {
			v.add(errors.CodeEffectInvalidArgs, "%s: flag_set needs flag name", at)
			return nil
		}
		return card.FlagSet{Name: raw.Flag}
	default:
		v.add(errors.CodePredicateUnknownKind, "%s: unknown predicate kind %q", at, raw.Kind)
		return nil
	}
}

func translateSelector(at string, raw *rawSelector, v *violations) card.Selector {
	if raw == nil {
		v.add(errors.CodeEffectInvalidArgs, "%s: discard needs a selector", at)
		return nil
	}
	n := 1
	if raw.N != nil {
		n = *raw.N
	}
	if n <= 0 {
		v.add(errors.CodeEffectInvalidArgs, "%s: selector needs n >= 1", at)
		return nil
	}
	switch raw.Kind {
	case kindSelectCheapest:
		return card.SelectCheapest{N: n}
	case kindSelectTrait:
		if raw.Trait == "" {
			v.add(errors.CodeEffectInvalidArgs, "%s: select_trait needs trait", at)
			return nil
		}
		return card.SelectTrait{Trait: raw.Trait, N: n}
	case kindSelectRandom:
		return card.SelectRandom{N: n}
	default:
		v.add(errors.CodeSelectorUnknownKind, "%s: unknown selector kind %q", at, raw.Kind)
		return nil
	}
}
