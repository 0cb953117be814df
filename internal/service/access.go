// Package service holds the back office core: the pass catalog, booking
// number allocation, the booking ledger, gate entry tracking and pass
// dispatch.  Every public operation takes the calling Actor and checks its
// capability itself; HTTP middleware only authenticates.
package service

import (
	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

// Actor is the authenticated staff member behind a call.
type Actor struct {
	UserID uint64
	Name   string
	Role   model.Role
}

// Capability names an action guarded by role.  The string is used in
// authorization error messages.
type Capability string

const (
	CapCreateBooking Capability = "create bookings"
	CapUpdatePayment Capability = "update payment status"
	CapResendPass    Capability = "resend passes"
	CapPreviewNumber Capability = "preview booking numbers"
	CapUpdateBooking Capability = "update bookings"
	CapDeleteBooking Capability = "delete bookings"
	CapManageCatalog Capability = "manage pass types"
	CapViewEntryLogs Capability = "view entry logs"
	CapManageUsers   Capability = "manage users"
	CapViewBookings  Capability = "view bookings"
	CapGateLookup    Capability = "look up passes at the gate"
	CapCheckIn       Capability = "check in guests"
)

var (
	adminOnly  = []model.Role{model.RoleAdmin}
	salesDesk  = []model.Role{model.RoleAdmin, model.RoleSales}
	gateDesk   = []model.Role{model.RoleAdmin, model.RoleGate}
	everyStaff = []model.Role{model.RoleAdmin, model.RoleSales, model.RoleGate}
)

var capabilities = map[Capability][]model.Role{
	CapCreateBooking: salesDesk,
	CapUpdatePayment: salesDesk,
	CapResendPass:    salesDesk,
	CapPreviewNumber: salesDesk,
	CapUpdateBooking: adminOnly,
	CapDeleteBooking: adminOnly,
	CapManageCatalog: adminOnly,
	CapViewEntryLogs: adminOnly,
	CapManageUsers:   adminOnly,
	CapViewBookings:  everyStaff,
	CapGateLookup:    gateDesk,
	CapCheckIn:       gateDesk,
}

// Authorize returns an AuthorizationError unless role holds capability.
// Unknown capabilities are denied.
func Authorize(role model.Role, capability Capability) error {
	for _, r := range capabilities[capability] {
		if r == role {
			return nil
		}
	}
	return domain.AuthorizationError{Role: string(role), Action: string(capability)}
}
