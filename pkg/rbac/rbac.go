// Package rbac holds the closed role set, the stored-role → view-role
// mapping and the static access table that drives route and menu gating.
package rbac

import (
	"net/http"
	"sort"
)

// Role is the role value persisted on an account.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleCustomer   Role = "customer"
)

// Interactive reports whether accounts with this role may sign in.
// Customers are identified by RFID card and carry no credential.
func (r Role) Interactive() bool { return r != RoleCustomer }

// ViewRole is the coarse access tier exposed to clients.
type ViewRole string

const (
	ViewSuperAdmin ViewRole = "super-admin"
	ViewAdmin      ViewRole = "admin"
	ViewStaff      ViewRole = "staff"

	// ViewDefault is the tier of any role not listed in View.
	ViewDefault = ViewStaff
)

// View maps a stored role onto its view tier.
func (r Role) View() ViewRole {
	switch r {
	case RoleSuperAdmin:
		return ViewSuperAdmin
	case RoleAdmin:
		return ViewAdmin
	case RoleStaff, RoleCustomer:
		return ViewStaff
	default:
		return ViewDefault
	}
}

// Resource is a gated area of the application.
type Resource string

const (
	TenantManagement   Resource = "tenant-management"
	CatalogManagement  Resource = "catalog-management"
	CustomerManagement Resource = "customer-management"
	OrderCapture       Resource = "order-capture"
)

// Resources lists every gated area.
var Resources = []Resource{TenantManagement, CatalogManagement, CustomerManagement, OrderCapture}

var table = map[ViewRole]map[Resource]bool{
	ViewSuperAdmin: {TenantManagement: true},
	ViewAdmin:      {CatalogManagement: true, CustomerManagement: true, OrderCapture: true},
	ViewStaff:      {OrderCapture: true},
}

// CanAccess reports whether role may see res.
func CanAccess(role ViewRole, res Resource) bool {
	return table[role][res]
}

// Visible returns the resources role may see, sorted.
func Visible(role ViewRole) []Resource {
	out := make([]Resource, 0, len(table[role]))
	for res, ok := range table[role] {
		if ok {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoleFunc extracts the caller's view role from a request.
type RoleFunc func(r *http.Request) (ViewRole, bool)

// Require returns middleware that admits the request when the caller's role
// can access at least one of resources. deny writes the rejection.
func Require(role RoleFunc, deny http.HandlerFunc, resources ...Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vr, ok := role(r)
			if ok {
				for _, res := range resources {
					if CanAccess(vr, res) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			deny(w, r)
		})
	}
}
