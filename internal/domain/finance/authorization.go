package finance

import (
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// CanReconcile reports whether actor may apply payments to an installment of a
// sale. Administrators may reconcile anything; a collector may reconcile when
// either the customer or the sale itself is assigned to them.
func CanReconcile(actor identity.Actor, customerCollectorID, saleCollectorID *uuid.UUID) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleCollector:
		return assignedTo(customerCollectorID, actor.UserID) || assignedTo(saleCollectorID, actor.UserID)
	default:
		return false
	}
}

// AuthorizeReconcile returns a permission error when actor may not reconcile the sale
func AuthorizeReconcile(actor identity.Actor, customer *partner.Customer, sale *trade.Sale) error {
	if !CanReconcile(actor, customer.CollectorID, sale.CollectorID) {
		return shared.NewPermissionError("Not allowed to collect payments for this sale")
	}
	return nil
}

// CanAccessCustomer reports whether actor may see a customer: administrators
// always, collectors when the customer or any of the given sales is assigned to them.
func CanAccessCustomer(actor identity.Actor, customer *partner.Customer, sales []trade.Sale) bool {
	if CanReconcile(actor, customer.CollectorID, nil) {
		return true
	}
	for i := range sales {
		if CanReconcile(actor, nil, sales[i].CollectorID) {
			return true
		}
	}
	return false
}

// CanViewCollection reports whether actor may read or correct a collection:
// administrators, or the collector who recorded it.
func CanViewCollection(actor identity.Actor, collectorID uuid.UUID) bool {
	return actor.IsAdmin() || (actor.IsCollector() && actor.UserID == collectorID)
}

func assignedTo(collectorID *uuid.UUID, userID uuid.UUID) bool {
	return collectorID != nil && *collectorID == userID
}
