package errors

import (
	// Go Internal Packages
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrs(t *testing.T) {
	ve := ValidationErrs()
	require.NoError(t, ve.Err())

	ve.Add("kafka.brokers", "cannot be empty")
	ve.Add("application", "cannot be empty")
	ve.Add("application", "must be lowercase")

	err := ve.Err()
	require.Error(t, err)
	assert.Equal(t, 2, ve.Len())
	assert.Equal(t, "application cannot be empty, must be lowercase; kafka.brokers cannot be empty", err.Error())
	assert.True(t, IsKind(err, Invalid))
}

func TestKindOfWrapped(t *testing.T) {
	base := TransientErr("put object", New("timeout"))
	wrapped := fmt.Errorf("flush: %w", base)

	assert.Equal(t, Transient, KindOf(wrapped))
	assert.Equal(t, Other, KindOf(New("plain")))
	assert.Equal(t, "not found", NotFoundErr("table raw").(*Error).Kind.String())
}

func TestKindOfUnwrapsOtherKind(t *testing.T) {
	err := E(Other, "outer", InvalidParamsErr(nil))
	assert.Equal(t, Invalid, KindOf(err))
}
