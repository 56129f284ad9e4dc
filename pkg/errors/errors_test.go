package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeInvalidSMILES, "bad SMILES")
	assert.Equal(t, "[MOL_001] bad SMILES", err.Error())

	withDetail := err.WithDetail("row=7")
	assert.Equal(t, "[MOL_001] bad SMILES: row=7", withDetail.Error())
	// Original is not mutated.
	assert.Equal(t, "", err.Detail)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeDockingFailed, "should be nil"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(CodeDockingTimeout, "timed out")
	outer := Wrap(inner, CodeUnknown, "stage failed")
	assert.Equal(t, CodeDockingTimeout, outer.Code)
}

func TestWrap_Unwrap(t *testing.T) {
	base := stderrors.New("exec failed")
	wrapped := Wrap(base, CodeDockingFailed, "vina invocation")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestIsCode_Chain(t *testing.T) {
	inner := New(CodeFingerprintFailed, "no atoms")
	outer := fmt.Errorf("embedding stage: %w", inner)
	assert.True(t, IsCode(outer, CodeFingerprintFailed))
	assert.False(t, IsCode(outer, CodeDescriptorFailed))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeNoUsableRecords, GetCode(New(CodeNoUsableRecords, "empty")))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(New(CodeInvalidConfig, "bad config")))
	assert.True(t, IsFatal(New(CodeNoUsableRecords, "no rows")))
	assert.False(t, IsFatal(New(CodeInvalidSMILES, "soft")))
	assert.False(t, IsFatal(New(CodeDockingTimeout, "soft")))
	assert.False(t, IsFatal(New(CodeStageDisabled, "degraded")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "MOL", ModuleForCode(CodeInvalidSMILES))
	assert.Equal(t, "CFG", ModuleForCode(CodeInvalidPlotField))
	assert.Equal(t, "DOCK", ModuleForCode(CodeDockingUnavailable))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "invalid SMILES format", DefaultMessageForCode(CodeInvalidSMILES))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
