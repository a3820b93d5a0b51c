package dynamo

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

var authErrorCodes = map[string]struct{}{
	"UnrecognizedClientException": {},
	"ExpiredTokenException":       {},
	"ExpiredToken":                {},
	"InvalidSignatureException":   {},
	"IncompleteSignature":         {},
	"MissingAuthenticationToken":  {},
	"InvalidClientTokenId":        {},
}

// classify maps SDK errors onto the table sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var conditional *types.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return fmt.Errorf("%w: %w", table.ErrConflict, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := authErrorCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %w", table.ErrAuth, err)
		}
	}
	return err
}
