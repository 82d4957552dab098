package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("anchor set Z is empty")
	wrapped := Wrap(base, "statistic failed")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeInvalidInput))
	assert.Equal(t, "statistic failed: anchor set Z is empty", wrapped.Error())
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("disk full"), "save failed")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestHasCodeThroughLayers(t *testing.T) {
	inner := NumericDegenerate("non-finite coordinate")
	err := ComputeFailure("replicate 3 failed", fmt.Errorf("worker: %w", inner))

	assert.Equal(t, CodeComputeFailure, GetCode(err))
	assert.True(t, HasCode(err, CodeComputeFailure))
	assert.True(t, HasCode(err, CodeNumericDegenerate))
	assert.False(t, HasCode(err, CodeInvalidInput))
	assert.False(t, HasCode(stderrors.New("plain"), CodeInvalidInput))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}
