package tenants

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peoplekit/peoplekit/core"
	"github.com/peoplekit/peoplekit/pkg/provision"
	"github.com/peoplekit/peoplekit/pkg/tenant"
)

// OTPHeader carries the second-factor code for destructive operations.
const OTPHeader = "X-OTP-Code"

// Registry is the catalog surface the handler reads from.
type Registry interface {
	FindByID(ctx context.Context, id string) (*tenant.Tenant, error)
	FindAll(ctx context.Context) ([]tenant.Tenant, error)
}

// Lifecycle is the provisioning surface the handler drives.
type Lifecycle interface {
	Create(ctx context.Context, params provision.CreateParams) (*tenant.Tenant, error)
	Update(ctx context.Context, id string, params provision.UpdateParams) (*tenant.Tenant, error)
	Delete(ctx context.Context, id, otpCode string) error
	ResetAdminPassword(ctx context.Context, id, newPassword string) error
}

// Handler exposes the administrative tenant management endpoints. These
// routes operate on the registry and partitions directly and must be
// mounted outside the tenant resolution middleware, behind operator
// authentication.
type Handler struct {
	registry  Registry
	lifecycle Lifecycle
}

// NewHandler creates the admin handler.
func NewHandler(registry Registry, lifecycle Lifecycle) *Handler {
	return &Handler{registry: registry, lifecycle: lifecycle}
}

// Router mounts the tenant management endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/password-reset", h.resetPassword)
	r.Delete("/{id}", h.delete)

	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var params provision.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage("invalid request body")))
		return
	}

	t, err := h.lifecycle.Create(r.Context(), params)
	if err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	core.Render(w, r, core.JSONWithStatus(http.StatusCreated, t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.registry.FindAll(r.Context())
	if err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	core.Render(w, r, core.JSON(tenants))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := tenant.ValidateID(id); err != nil {
		core.Render(w, r, MapError(err))
		return
	}

	t, err := h.registry.FindByID(r.Context(), id)
	if err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	core.Render(w, r, core.JSON(t))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var params provision.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage("invalid request body")))
		return
	}

	t, err := h.lifecycle.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	core.Render(w, r, core.JSON(t))
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest.WithMessage("invalid request body")))
		return
	}

	if err := h.lifecycle.ResetAdminPassword(r.Context(), chi.URLParam(r, "id"), body.NewPassword); err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	core.Render(w, r, core.JSON(map[string]string{"status": "password_reset"}))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.Delete(r.Context(), chi.URLParam(r, "id"), r.Header.Get(OTPHeader)); err != nil {
		core.Render(w, r, MapError(err))
		return
	}
	core.Render(w, r, core.JSON(map[string]string{"status": "deleted"}))
}
