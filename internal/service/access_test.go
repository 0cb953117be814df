package service

import (
	"testing"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
)

func TestAuthorizeMatrix(t *testing.T) {
	allowed := map[Capability][]model.Role{
		CapCreateBooking: {model.RoleAdmin, model.RoleSales},
		CapUpdatePayment: {model.RoleAdmin, model.RoleSales},
		CapResendPass:    {model.RoleAdmin, model.RoleSales},
		CapPreviewNumber: {model.RoleAdmin, model.RoleSales},
		CapUpdateBooking: {model.RoleAdmin},
		CapDeleteBooking: {model.RoleAdmin},
		CapManageCatalog: {model.RoleAdmin},
		CapViewEntryLogs: {model.RoleAdmin},
		CapManageUsers:   {model.RoleAdmin},
		CapViewBookings:  {model.RoleAdmin, model.RoleSales, model.RoleGate},
		CapGateLookup:    {model.RoleAdmin, model.RoleGate},
		CapCheckIn:       {model.RoleAdmin, model.RoleGate},
	}
	roles := []model.Role{model.RoleAdmin, model.RoleSales, model.RoleGate, "Guest", ""}
	for capability, ok := range allowed {
		for _, r := range roles {
			want := false
			for _, a := range ok {
				if a == r {
					want = true
				}
			}
			err := Authorize(r, capability)
			if (err == nil) != want {
				t.Fatalf("Authorize(%q, %q) = %v, want allowed=%v", r, capability, err, want)
			}
			if err != nil && !domain.IsAuthorization(err) {
				t.Fatalf("wrong error kind: %T", err)
			}
		}
	}
}

func TestAuthorizeUnknownCapability(t *testing.T) {
	if err := Authorize(model.RoleAdmin, "launch rockets"); err == nil {
		t.Fatal("unknown capability must be denied")
	}
}
