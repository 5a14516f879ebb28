package tests

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arcchain/arcerr"
	"arcchain/native/agentregistry"
	"arcchain/native/common"
)

// S3: optimistic concurrency control. Two independent readers both observe
// state_version=4; the first writer's guarded mutation commits and advances
// the version to 5. The second writer's guard must detect that the version
// it expected no longer holds and fail with CodeStateVersionMismatch,
// exactly as common.WithConcurrencyGuard's CAS check is meant to: mutate
// changing the version out from under the expected snapshot is exactly what
// a racing concurrent writer would do between this writer's load and its
// commit.
func TestScenarioS3_OptimisticConcurrencyConflict(t *testing.T) {
	readerA := &agentregistry.AgentEntry{ID: "svc", Name: "a"}
	readerA.SetStateVersion(4)
	readerB := &agentregistry.AgentEntry{ID: "svc", Name: "a"}
	readerB.SetStateVersion(4)

	err := common.WithConcurrencyGuard(readerA, 1000, func() error {
		readerA.Name = "writer A's update"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5), readerA.StateVersion())

	err = common.WithConcurrencyGuard(readerB, 1000, func() error {
		// A concurrent writer already advanced the underlying account to
		// version 5 between this reader's load and its own commit; the
		// guard must notice the mismatch against the version it expected
		// (4) and refuse to apply writer B's update on top of stale data.
		readerB.SetStateVersion(5)
		readerB.Name = "writer B's update"
		return nil
	})
	var ae *arcerr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, arcerr.CodeStateVersionMismatch, ae.Code)
	require.Equal(t, "writer A's update", readerA.Name)
}
