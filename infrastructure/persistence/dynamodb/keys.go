// Package dynamodb implements the repository ports over a single
// DynamoDB table. Items are partitioned by owner (PK "USER#<id>") with
// typed sort keys, and GSI1 provides lookup by entity id so ownership
// violations can be told apart from missing records.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/smithy-go"

	pkgerrors "synapse-backend/pkg/errors"
)

const (
	// timeFormat keeps sub-second ordering; utils.ParseRFC3339 reads it back
	timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

	gsi1Name       = "GSI1"
	gsi1MetadataSK = "METADATA"

	entityTypeNode       = "NODE"
	entityTypeConnection = "CONNECTION"
	entityTypeCluster    = "CLUSTER"
)

func userPK(ownerID string) string {
	return fmt.Sprintf("USER#%s", ownerID)
}

func nodeSK(id string) string {
	return fmt.Sprintf("NODE#%s", id)
}

func connectionSK(id string) string {
	return fmt.Sprintf("CONN#%s", id)
}

func clusterSK(id string) string {
	return fmt.Sprintf("CLUSTER#%s", id)
}

func nodeGSI1PK(id string) string {
	return fmt.Sprintf("NODEID#%s", id)
}

func connectionGSI1PK(id string) string {
	return fmt.Sprintf("CONNID#%s", id)
}

func clusterGSI1PK(id string) string {
	return fmt.Sprintf("CLUSTERID#%s", id)
}

// ownerPrefixQuery builds the key condition for scanning one entity
// type inside an owner partition
func ownerPrefixQuery(ownerID, skPrefix string) (expression.Expression, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(skPrefix))
	return expression.NewBuilder().WithKeyCondition(keyCond).Build()
}

// storeError wraps a DynamoDB failure as a database error, keeping the
// service error code when the SDK exposes one
func storeError(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil {
		return pkgerrors.NewDatabaseError(operation, ctx.Err())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.NewDatabaseError(
			fmt.Sprintf("%s (%s)", operation, apiErr.ErrorCode()), err)
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
