package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: CFG (configuration), MOL (molecule),
// PIPE (pipeline), DOCK (docking), DASH (dashboard), IO (input/output).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "COMMON_000"

	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidParam ErrorCode = "COMMON_002"
	CodeNotFound     ErrorCode = "COMMON_003"
	CodeTimeout      ErrorCode = "COMMON_004"
	CodeCancelled    ErrorCode = "COMMON_005"
)

// Configuration error codes — always fatal, detected before any stage runs.
const (
	CodeInvalidConfig     ErrorCode = "CFG_001"
	CodeConfigFileMissing ErrorCode = "CFG_002"
	CodeMissingKey        ErrorCode = "CFG_003"
	CodeInvalidPlotField  ErrorCode = "CFG_004"
)

// Molecule error codes — soft, per-compound.
const (
	CodeInvalidSMILES      ErrorCode = "MOL_001"
	CodeDescriptorFailed   ErrorCode = "MOL_002"
	CodeFingerprintFailed  ErrorCode = "MOL_003"
	CodeDepictionFailed    ErrorCode = "MOL_004"
	CodeLigandPrepFailed   ErrorCode = "MOL_005"
	CodeMoleculeConversion ErrorCode = "MOL_006"
)

// Pipeline error codes
const (
	CodePipelineFailed  ErrorCode = "PIPE_001"
	CodeNoUsableRecords ErrorCode = "PIPE_002" // fatal: zero survivors after loading
	CodeStageDisabled   ErrorCode = "PIPE_003" // degraded feature, one notice per run
)

// Docking error codes
const (
	CodeDockingUnavailable ErrorCode = "DOCK_001" // executable missing; disables the stage
	CodeDockingFailed      ErrorCode = "DOCK_002" // per-compound soft failure
	CodeDockingTimeout     ErrorCode = "DOCK_003" // per-compound soft failure
	CodeDockingParseFailed ErrorCode = "DOCK_004"
)

// Dashboard / rendering error codes
const (
	CodeRenderFailed ErrorCode = "DASH_001"
	CodeExportFailed ErrorCode = "DASH_002"
)

// Input error codes
const (
	CodeInputUnreadable ErrorCode = "IO_001" // fatal
	CodeInputParse      ErrorCode = "IO_002"
	CodeStorageError    ErrorCode = "IO_003"
)

// fatalCodes is the set of codes that abort the run before any output is
// produced.  Everything else is either a per-compound soft failure or a
// degraded-feature notice handled inside the orchestrator.
var fatalCodes = map[ErrorCode]bool{
	CodeInvalidConfig:     true,
	CodeConfigFileMissing: true,
	CodeMissingKey:        true,
	CodeInvalidPlotField:  true,
	CodeNoUsableRecords:   true,
	CodeInputUnreadable:   true,
	CodeInputParse:        true,
	CodeInternal:          true,
}

// FatalCode reports whether the given code is classified as run-aborting.
func FatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}

// ErrorCodeMessage maps ErrorCodes to default human-readable messages.
var ErrorCodeMessage = map[ErrorCode]string{
	CodeInternal:     "internal error",
	CodeInvalidParam: "invalid parameter",
	CodeNotFound:     "not found",
	CodeTimeout:      "operation timed out",
	CodeCancelled:    "operation cancelled",

	CodeInvalidConfig:     "invalid configuration",
	CodeConfigFileMissing: "configuration file not found",
	CodeMissingKey:        "missing required configuration key",
	CodeInvalidPlotField:  "plot references an unknown property",

	CodeInvalidSMILES:      "invalid SMILES format",
	CodeDescriptorFailed:   "descriptor calculation failed",
	CodeFingerprintFailed:  "fingerprint generation failed",
	CodeDepictionFailed:    "structure depiction failed",
	CodeLigandPrepFailed:   "ligand preparation failed",
	CodeMoleculeConversion: "molecule format conversion failed",

	CodePipelineFailed:  "pipeline execution failed",
	CodeNoUsableRecords: "no usable compounds after loading",
	CodeStageDisabled:   "optional stage disabled",

	CodeDockingUnavailable: "docking executable not available",
	CodeDockingFailed:      "docking run failed",
	CodeDockingTimeout:     "docking run timed out",
	CodeDockingParseFailed: "failed to parse docking output",

	CodeRenderFailed: "dashboard rendering failed",
	CodeExportFailed: "data export failed",

	CodeInputUnreadable: "input file unreadable",
	CodeInputParse:      "input file parse error",
	CodeStorageError:    "artifact storage error",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
