package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, RequestPending.IsTerminal())
	assert.True(t, RequestApproved.IsTerminal())
	assert.True(t, RequestRejected.IsTerminal())
}

func TestValidRequestStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"pending", "approved", "rejected"} {
		assert.True(t, ValidRequestStatus(s), s)
	}
	for _, s := range []string{"", "all", "active", "Pending"} {
		assert.False(t, ValidRequestStatus(s), s)
	}
}

func TestValidUserStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidUserStatus("active"))
	assert.True(t, ValidUserStatus("disabled"))
	assert.False(t, ValidUserStatus("pending"))
	assert.False(t, ValidUserStatus(""))
}

func TestDecided(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	pending := AccessRequest{Status: RequestPending}
	assert.False(t, pending.Decided())

	approved := AccessRequest{Status: RequestApproved, DecisionAt: &now}
	assert.True(t, approved.Decided())

	// terminal status without a stamp is not a recorded decision
	broken := AccessRequest{Status: RequestRejected}
	assert.False(t, broken.Decided())
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, AccessStats{}, ComputeStats(nil))
	})

	t.Run("mixed collection", func(t *testing.T) {
		t.Parallel()

		items := []AccessRequest{
			{Status: RequestPending},
			{Status: RequestPending},
			{Status: RequestApproved},
			{Status: RequestRejected},
		}

		stats := ComputeStats(items)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 2, stats.Pending)
		assert.Equal(t, 1, stats.Approved)
		assert.Equal(t, 1, stats.Rejected)
	})
}
