package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// errorCode extracts the EC2 API error code, or "" for non-API errors.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// isErrorCode checks if the error is an EC2 API error with one of the given codes.
func isErrorCode(err error, codes ...string) bool {
	code := errorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource that no longer exists.
// EC2 spells this differently per resource type, so the ".NotFound" suffix
// is matched in addition to the explicit codes.
func IsNotFound(err error) bool {
	code := errorCode(err)
	if code == "" {
		return false
	}
	return strings.HasSuffix(code, ".NotFound") ||
		code == "NatGatewayNotFound" ||
		code == "Gateway.NotAttached" // detaching an already-detached gateway
}

// IsDependencyViolation checks if a delete failed because another resource
// still references the target. These are retried across teardown passes.
func IsDependencyViolation(err error) bool {
	return isErrorCode(err, "DependencyViolation", "ResourceInUse")
}

// IsTransient checks if an error is worth retrying at the single-call level:
// throttling, internal errors, and the eventual-consistency window where a
// just-created resource is not yet visible to a dependent call.
func IsTransient(err error) bool {
	return isErrorCode(err,
		"RequestLimitExceeded",
		"InternalError",
		"Unavailable",
		"ServiceUnavailable",
		"IncorrectState",
		"InvalidGroup.NotFound",    // SG visibility delay after create
		"InvalidSubnetID.NotFound", // subnet visibility delay after create
	)
}

// IsInvalidParameter checks if an error indicates bad input. These are
// terminal and never retried.
func IsInvalidParameter(err error) bool {
	code := errorCode(err)
	return strings.HasPrefix(code, "InvalidParameter") ||
		code == "MissingParameter" ||
		code == "UnauthorizedOperation"
}

// IsDuplicate checks if a create failed because the resource already exists.
func IsDuplicate(err error) bool {
	return isErrorCode(err, "InvalidGroup.Duplicate", "InvalidPermission.Duplicate")
}
