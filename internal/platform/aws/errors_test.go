package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(apiErr("InvalidVpcID.NotFound")))
	assert.True(t, IsNotFound(apiErr("InvalidGroup.NotFound")))
	assert.True(t, IsNotFound(apiErr("NatGatewayNotFound")))
	assert.True(t, IsNotFound(apiErr("Gateway.NotAttached")))
	// Wrapped errors still classify.
	assert.True(t, IsNotFound(fmt.Errorf("delete failed: %w", apiErr("InvalidSubnetID.NotFound"))))

	assert.False(t, IsNotFound(apiErr("DependencyViolation")))
	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsNotFound(nil))
}

func TestIsDependencyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDependencyViolation(apiErr("DependencyViolation")))
	assert.False(t, IsDependencyViolation(apiErr("InvalidVpcID.NotFound")))
	assert.False(t, IsDependencyViolation(errors.New("plain error")))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransient(apiErr("RequestLimitExceeded")))
	assert.True(t, IsTransient(apiErr("InvalidGroup.NotFound")))
	assert.False(t, IsTransient(apiErr("InvalidParameterValue")))
	assert.False(t, IsTransient(errors.New("plain error")))
}

func TestIsInvalidParameter(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInvalidParameter(apiErr("InvalidParameterValue")))
	assert.True(t, IsInvalidParameter(apiErr("InvalidParameterCombination")))
	assert.True(t, IsInvalidParameter(apiErr("MissingParameter")))
	assert.True(t, IsInvalidParameter(apiErr("UnauthorizedOperation")))
	assert.False(t, IsInvalidParameter(apiErr("RequestLimitExceeded")))
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicate(apiErr("InvalidGroup.Duplicate")))
	assert.False(t, IsDuplicate(apiErr("DependencyViolation")))
}
