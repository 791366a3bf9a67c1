package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wayfare-app/api/internal/domain"
)

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		minimum domain.Role
		want    bool
	}{
		{"admin meets admin", domain.RoleAdmin, domain.RoleAdmin, true},
		{"admin meets guest", domain.RoleAdmin, domain.RoleGuest, true},
		{"guest meets guest", domain.RoleGuest, domain.RoleGuest, true},
		{"guest below admin", domain.RoleGuest, domain.RoleAdmin, false},
		{"none below guest", domain.RoleNone, domain.RoleGuest, false},
		{"none below admin", domain.RoleNone, domain.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.minimum))
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, domain.RoleAdmin.Valid())
	assert.True(t, domain.RoleGuest.Valid())
	assert.False(t, domain.RoleNone.Valid())
	assert.False(t, domain.Role("owner").Valid())
}

func TestTripStatus_Valid(t *testing.T) {
	for _, s := range []domain.TripStatus{
		domain.TripStatusPlanning,
		domain.TripStatusActive,
		domain.TripStatusCompleted,
		domain.TripStatusCancelled,
	} {
		assert.True(t, s.Valid(), "status %q", s)
	}

	assert.False(t, domain.TripStatus("").Valid())
	assert.False(t, domain.TripStatus("archived").Valid())
}
