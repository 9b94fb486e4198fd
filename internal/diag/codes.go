package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// semantic analysis
	SemaInfo               Code = 3000
	SemaError              Code = 3001
	SemaTypeMismatch       Code = 3002
	SemaUndeclared         Code = 3003
	SemaDuplicateDecl      Code = 3004
	SemaNonexhaustiveMatch Code = 3005
	SemaDuplicateCase      Code = 3006
	SemaUnknownVariant     Code = 3007
	SemaUnreachableCase    Code = 3008
	SemaMatchNonSum        Code = 3009
	SemaNotCallable        Code = 3010
	SemaArgCount           Code = 3011
	SemaNotIterable        Code = 3012
	SemaBadOperand         Code = 3013
	SemaReturnMismatch     Code = 3014
	SemaSignChange         Code = 3015
	SemaNarrowing          Code = 3016
	SemaUnknownMember      Code = 3017
	SemaTypeclassMismatch  Code = 3018
	SemaMissingTypeclass   Code = 3019
	SemaUnsupportedGeneric Code = 3020

	// lowering and textual IR
	RIRInfo            Code = 4000
	RIRSyntax          Code = 4001
	RIRUnknownType     Code = 4002
	RIRUnknownValue    Code = 4003
	RIRUnknownLabel    Code = 4004
	RIRDuplicate       Code = 4005
	RIRInvalid         Code = 4006
	RIRLoweringFailure Code = 4007

	// project and manifest
	ProjInfo             Code = 5000
	ProjManifest         Code = 5001
	ProjMissingModule    Code = 5002
	ProjDuplicateModule  Code = 5003
	ProjImportCycle      Code = 5004
	ProjSelfImport       Code = 5005
	ProjLoadFailure      Code = 5006
	ProjDependencyFailed Code = 5007

	// observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// internal
	InternalError Code = 9000
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	SemaInfo:               "Semantic information",
	SemaError:              "Semantic error",
	SemaTypeMismatch:       "Type mismatch",
	SemaUndeclared:         "Undeclared identifier",
	SemaDuplicateDecl:      "Duplicate declaration",
	SemaNonexhaustiveMatch: "Non-exhaustive match",
	SemaDuplicateCase:      "Duplicate match case",
	SemaUnknownVariant:     "Match case names no variant of the matched type",
	SemaUnreachableCase:    "Unreachable match case",
	SemaMatchNonSum:        "Match over a non-sum type",
	SemaNotCallable:        "Value is not callable",
	SemaArgCount:           "Wrong number of arguments",
	SemaNotIterable:        "Value is not iterable",
	SemaBadOperand:         "Invalid operand",
	SemaReturnMismatch:     "Return type mismatch",
	SemaSignChange:         "Implicit sign change",
	SemaNarrowing:          "Implicit narrowing conversion",
	SemaUnknownMember:      "Unknown member",
	SemaTypeclassMismatch:  "Instance does not match typeclass",
	SemaMissingTypeclass:   "Unknown typeclass",
	SemaUnsupportedGeneric: "Generic type cannot be lowered",
	RIRInfo:                "RIR information",
	RIRSyntax:              "RIR syntax error",
	RIRUnknownType:         "Unknown RIR type",
	RIRUnknownValue:        "Unknown RIR value",
	RIRUnknownLabel:        "Unknown RIR label",
	RIRDuplicate:           "Duplicate RIR definition",
	RIRInvalid:             "Invalid RIR module",
	RIRLoweringFailure:     "Lowering failure",
	ProjInfo:               "Project information",
	ProjManifest:           "Invalid manifest",
	ProjMissingModule:      "Missing module",
	ProjDuplicateModule:    "Duplicate module definition",
	ProjImportCycle:        "Module dependency cycle",
	ProjSelfImport:         "Module depends on itself",
	ProjLoadFailure:        "Failed to load module",
	ProjDependencyFailed:   "Dependency module has errors",
	ObsInfo:                "Observability information",
	ObsTimings:             "Pipeline timings",
	InternalError:          "Internal compiler error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RIR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
