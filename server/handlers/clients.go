package handlers

import (
	"net/http"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/common/ws"
)

// handleClients supports GET (list) and POST (create).
func (api *API) handleClients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := api.store.ListClients(r.Context())
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	case http.MethodPost:
		var c model.Client
		if err := decodeJSON(w, r, &c); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		if err := api.store.CreateClient(r.Context(), &c); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypeClientCreated, map[string]interface{}{"client": c})
		writeJSON(w, http.StatusCreated, c)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleClientRoute dispatches /api/v1/clients/{id} and /departments below it.
func (api *API) handleClientRoute(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/v1/clients/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		api.handleClientByID(w, r, id)
	case "departments":
		api.handleClientDepartments(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (api *API) handleClientByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		c, err := api.store.GetClient(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		c, err := api.store.GetClient(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		createdAt := c.CreatedAt
		if err := decodeJSON(w, r, c); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		c.ID, c.CreatedAt = id, createdAt
		if err := api.store.UpdateClient(r.Context(), c); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypeClientUpdated, map[string]interface{}{"client": c})
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		if err := api.store.DeleteClient(r.Context(), id); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.log.Info("Client deleted", "id", id)
		api.publish(ws.MessageTypeClientDeleted, map[string]interface{}{"id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (api *API) handleClientDepartments(w http.ResponseWriter, r *http.Request, clientID string) {
	switch r.Method {
	case http.MethodGet:
		if _, err := api.store.GetClient(r.Context(), clientID); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		list, err := api.store.ListDepartments(r.Context(), clientID)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	case http.MethodPost:
		var d model.Department
		if err := decodeJSON(w, r, &d); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		d.ClientID = clientID
		api.createDepartment(w, r, &d)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleDepartments supports GET (list, optional ?client_id=) and POST.
func (api *API) handleDepartments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := api.store.ListDepartments(r.Context(), r.URL.Query().Get("client_id"))
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	case http.MethodPost:
		var d model.Department
		if err := decodeJSON(w, r, &d); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.createDepartment(w, r, &d)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (api *API) createDepartment(w http.ResponseWriter, r *http.Request, d *model.Department) {
	if err := api.store.CreateDepartment(r.Context(), d); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	api.publish(ws.MessageTypeDepartmentCreated, map[string]interface{}{"department": d})
	writeJSON(w, http.StatusCreated, d)
}

func (api *API) handleDepartmentByID(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/v1/departments/")
	if id == "" || sub != "" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		d, err := api.store.GetDepartment(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodDelete:
		if err := api.store.DeleteDepartment(r.Context(), id); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypeDepartmentDeleted, map[string]interface{}{"id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}
