// Package errors provides structured error handling for the simulation engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Deck configuration errors
	CodeDeckEmpty            Code = "DECK_EMPTY"
	CodeDeckSizeOutOfRange   Code = "DECK_SIZE_OUT_OF_RANGE"
	CodeDeckCopyLimit        Code = "DECK_COPY_LIMIT_EXCEEDED"
	CodeDeckInvalidQuantity  Code = "DECK_INVALID_QUANTITY"
	CodeDeckDuplicateEntry   Code = "DECK_DUPLICATE_ENTRY"
	CodeCardUnresolved       Code = "CARD_UNRESOLVED"
	CodeCardInvalidCost      Code = "CARD_INVALID_COST"
	CodeCardEmptyID          Code = "CARD_EMPTY_ID"
	CodeEffectUnknownKind    Code = "EFFECT_UNKNOWN_KIND"
	CodeEffectInvalidArgs    Code = "EFFECT_INVALID_ARGUMENTS"
	CodePredicateUnknownKind Code = "PREDICATE_UNKNOWN_KIND"
	CodeSelectorUnknownKind  Code = "SELECTOR_UNKNOWN_KIND"

	// Investigator/scenario errors
	CodeInvestigatorInvalidResources Code = "INVESTIGATOR_INVALID_RESOURCES"
	CodeInvestigatorInvalidHandSize  Code = "INVESTIGATOR_INVALID_HAND_SIZE"

	// Run request errors
	CodeTrialCountInvalid   Code = "TRIAL_COUNT_INVALID"
	CodeRoundHorizonInvalid Code = "ROUND_HORIZON_INVALID"
	CodePolicyUnknown       Code = "POLICY_UNKNOWN"
	CodePolicyScriptInvalid Code = "POLICY_SCRIPT_INVALID"
	CodeMilestoneInvalid    Code = "MILESTONE_INVALID"

	// Logic faults (corrupt shared card data encountered mid-resolution)
	CodeEffectResolutionFault Code = "EFFECT_RESOLUTION_FAULT"

	// RNG contract violations
	CodeRNGInvalidBound       Code = "RNG_INVALID_BOUND"
	CodeRNGInvalidProbability Code = "RNG_INVALID_PROBABILITY"

	// Catalog errors
	CodeCatalogNotFound Code = "CATALOG_NOT_FOUND"
	CodeCatalogInvalid  Code = "CATALOG_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Run-level operational conditions
	CodeRunCancelled Code = "RUN_CANCELLED"
	CodeRunDeadline  Code = "RUN_DEADLINE_EXCEEDED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeDeckEmpty,
		CodeDeckSizeOutOfRange,
		CodeDeckCopyLimit,
		CodeDeckInvalidQuantity,
		CodeDeckDuplicateEntry,
		CodeCardInvalidCost,
		CodeCardEmptyID,
		CodeEffectUnknownKind,
		CodeEffectInvalidArgs,
		CodePredicateUnknownKind,
		CodeSelectorUnknownKind,
		CodeInvestigatorInvalidResources,
		CodeInvestigatorInvalidHandSize,
		CodeTrialCountInvalid,
		CodeRoundHorizonInvalid,
		CodeMilestoneInvalid,
		CodeRNGInvalidBound,
		CodeRNGInvalidProbability:
		return codes.InvalidArgument

	// FailedPrecondition - configuration references that cannot be satisfied
	case CodeCardUnresolved,
		CodePolicyUnknown,
		CodePolicyScriptInvalid,
		CodeCatalogInvalid:
		return codes.FailedPrecondition

	// NotFound - missing stored or on-disk artifacts
	case CodeNotFound,
		CodeCatalogNotFound:
		return codes.NotFound

	// Internal - defects in shared card data
	case CodeEffectResolutionFault:
		return codes.Internal

	case CodeRunCancelled:
		return codes.Canceled

	case CodeRunDeadline:
		return codes.DeadlineExceeded
	}

	return codes.Unknown
}
