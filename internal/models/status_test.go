package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusSets(t *testing.T) {
	assert.True(t, RepairStatusInProgress.IsValid())
	assert.False(t, RepairStatus("in_progress").IsValid())
	assert.False(t, RepairStatus("").IsValid())

	assert.True(t, EnrollmentStatusCompleted.IsValid())
	assert.False(t, EnrollmentStatus("cancelled").IsValid())

	assert.True(t, EnrollmentPaymentPartial.IsValid())
	assert.False(t, EnrollmentPaymentStatus("refunded").IsValid())

	assert.True(t, PaymentStatusRefunded.IsValid())
	assert.False(t, PaymentStatus("paid").IsValid())

	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, UserRole("superadmin").IsValid())
}

func TestShortReference(t *testing.T) {
	assert.Equal(t, "ABC123", ShortReference("64b7f0e2-aaaa-bbbb-cccc-ddddeeabc123"))
	assert.Equal(t, "AB1", ShortReference("ab1"))
	e := Enrollment{ID: "0f1e2d3c-0000-0000-0000-00000000beef"}
	assert.Equal(t, "00BEEF", e.Reference())
}

func TestNotificationPayloadScan(t *testing.T) {
	var p NotificationPayload
	require.NoError(t, p.Scan([]byte(`{"name":"Jane","reference":"A1B2C3"}`)))
	assert.Equal(t, "Jane", p["name"])

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	require.Error(t, p.Scan(42))

	v, err := NotificationPayload(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	live := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, live.Usable(now))
	assert.False(t, live.Usable(now.Add(2*time.Hour)))

	revoked := &RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}
	assert.False(t, revoked.Usable(now))

	var missing *RefreshToken
	assert.False(t, missing.Usable(now))
}
