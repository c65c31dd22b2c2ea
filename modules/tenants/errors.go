package tenants

import (
	"errors"
	"net/http"

	"github.com/peoplekit/peoplekit/core"
	"github.com/peoplekit/peoplekit/pkg/provision"
	"github.com/peoplekit/peoplekit/pkg/tenant"
	"github.com/peoplekit/peoplekit/pkg/tenantdb"
)

// MapError translates the error taxonomy of the tenancy core into HTTP
// responses with stable codes. Unknown errors become an opaque 500.
func MapError(err error) core.Response {
	switch {
	case errors.Is(err, tenant.ErrMissingTenantID):
		return core.JSONError(core.NewHTTPError(http.StatusBadRequest, "missing_tenant_identifier").
			WithMessage("tenant identifier is required"))
	case errors.Is(err, tenant.ErrInvalidIdentifier):
		return core.JSONError(core.NewHTTPError(http.StatusBadRequest, "invalid_tenant_identifier").
			WithMessage("tenant identifier must be lowercase letters, digits and underscores"))
	case errors.Is(err, tenant.ErrTenantNotFound):
		return core.JSONError(core.NewHTTPError(http.StatusNotFound, "tenant_not_found").
			WithMessage("tenant not found"))
	case errors.Is(err, tenant.ErrTenantInactive):
		return core.JSONError(core.NewHTTPError(http.StatusForbidden, "tenant_inactive").
			WithMessage("tenant is inactive"))
	case errors.Is(err, tenant.ErrTenantAlreadyExists):
		return core.JSONError(core.NewHTTPError(http.StatusConflict, "tenant_already_exists").
			WithMessage("tenant identifier is already registered"))
	case errors.Is(err, provision.ErrSecondFactorRequired):
		return core.JSONError(core.NewHTTPError(http.StatusForbidden, "second_factor_required").
			WithMessage("destructive operations require a second factor code"))
	case errors.Is(err, provision.ErrInvalidSecondFactor):
		return core.JSONError(core.NewHTTPError(http.StatusForbidden, "invalid_second_factor").
			WithMessage("second factor code did not verify"))
	case errors.Is(err, tenant.ErrInvalidStatus):
		return core.JSONError(core.NewHTTPError(http.StatusUnprocessableEntity, "invalid_status").
			WithMessage("tenant status must be active or inactive"))
	case errors.Is(err, provision.ErrWeakPassword):
		return core.JSONError(core.NewHTTPError(http.StatusUnprocessableEntity, "weak_password").
			WithMessage(provision.ErrWeakPassword.Error()))
	case errors.Is(err, provision.ErrProvisioningFailed):
		return core.JSONError(core.NewHTTPError(http.StatusInternalServerError, "provisioning_failed").
			WithMessage("tenant provisioning failed and was rolled back"))
	case errors.Is(err, provision.ErrDeprovisioningFailed):
		return core.JSONError(core.NewHTTPError(http.StatusInternalServerError, "deprovisioning_failed").
			WithMessage("tenant deprovisioning failed and was rolled back"))
	case errors.Is(err, tenantdb.ErrPoolExhausted):
		return core.JSONError(core.NewHTTPError(http.StatusServiceUnavailable, "pool_exhausted").
			WithMessage("no database capacity available, retry shortly").
			WithHeader("Retry-After", "1"))
	default:
		return core.JSONError(err)
	}
}

// ErrorHandler adapts MapError to the tenant middleware's handler signature.
func ErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	core.Render(w, r, MapError(err))
}
