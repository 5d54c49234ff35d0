package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/common/ws"
	"github.com/an1noX/techpinoyv3-sub002/server/probe"
)

// handlePrinters supports GET (list) and POST (create).
func (api *API) handlePrinters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := printerFilterFromQuery(r)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		list, err := api.store.ListPrinters(r.Context(), filter)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	case http.MethodPost:
		var p model.Printer
		if err := decodeJSON(w, r, &p); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		if p.Status == "" {
			p.Status = model.StatusAvailable
		}
		if p.OwnedBy == "" {
			p.OwnedBy = model.OwnedBySystem
		}
		if err := api.store.CreatePrinter(r.Context(), &p); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.log.Info("Printer registered", "id", p.ID, "model", p.DisplayName())
		api.publish(ws.MessageTypePrinterCreated, map[string]interface{}{"printer": p})
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// printerFilterFromQuery parses list filters. Enum filters go through the
// registry so an unknown value is a 400, not an empty list.
func printerFilterFromQuery(r *http.Request) (model.PrinterFilter, error) {
	q := r.URL.Query()
	filter := model.PrinterFilter{
		ClientID:   q.Get("client_id"),
		Department: q.Get("department"),
	}
	if raw := q.Get("status"); raw != "" {
		s, err := model.ParsePrinterStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = s
	}
	if raw := q.Get("owned_by"); raw != "" {
		o, err := model.ParseOwnershipType(raw)
		if err != nil {
			return filter, err
		}
		filter.OwnedBy = o
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, &model.ValidationError{Entity: "query", Field: "limit", Reason: "must be a non-negative integer"}
		}
		filter.Limit = n
	}
	return filter, nil
}

// handlePrinterRoute dispatches /api/v1/printers/{id} and its sub-resources.
func (api *API) handlePrinterRoute(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/v1/printers/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		api.handlePrinterByID(w, r, id)
	case "status":
		api.handlePrinterStatus(w, r, id)
	case "transfers":
		api.handleTransfers(w, r, id)
	case "maintenance":
		api.handleMaintenance(w, r, id)
	case "probe":
		api.handleProbe(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (api *API) handlePrinterByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		p, err := api.store.GetPrinter(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		// Fields absent from the body keep their stored values.
		p, err := api.store.GetPrinter(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		createdAt := p.CreatedAt
		if err := decodeJSON(w, r, p); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		p.ID, p.CreatedAt = id, createdAt
		if err := api.store.UpdatePrinter(r.Context(), p); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypePrinterUpdated, map[string]interface{}{"printer": p})
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := api.store.DeletePrinter(r.Context(), id); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.log.Info("Printer deleted", "id", id)
		api.publish(ws.MessageTypePrinterDeleted, map[string]interface{}{"id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (api *API) handlePrinterStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodPut)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	status, err := model.ParsePrinterStatus(body.Status)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := api.store.UpdatePrinterStatus(r.Context(), id, status); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	p, err := api.store.GetPrinter(r.Context(), id)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	api.publish(ws.MessageTypeStatusChanged, map[string]interface{}{"id": id, "status": status})
	writeJSON(w, http.StatusOK, p)
}

func (api *API) handleTransfers(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		logs, err := api.store.ListTransferLogs(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(logs))
	case http.MethodPost:
		var entry model.TransferLog
		if err := decodeJSON(w, r, &entry); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		entry.ID = 0
		entry.PrinterID = id
		if entry.PerformedBy == "" {
			entry.PerformedBy = api.actorLabel(r)
		}
		if err := api.store.AppendTransferLog(r.Context(), &entry); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.log.Info("Printer transferred", "id", id, "from", entry.FromClientID, "to", entry.ToClientID)
		api.publish(ws.MessageTypeTransferLogged, map[string]interface{}{"transfer": entry})
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (api *API) handleMaintenance(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		logs, err := api.store.ListMaintenanceLogs(r.Context(), id)
		if err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(logs))
	case http.MethodPost:
		var entry model.MaintenanceLog
		if err := decodeJSON(w, r, &entry); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		entry.ID = 0
		entry.PrinterID = id
		if entry.PerformedBy == "" {
			entry.PerformedBy = api.actorLabel(r)
		}
		if err := api.store.AppendMaintenanceLog(r.Context(), &entry); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		api.publish(ws.MessageTypeMaintenanceLogged, map[string]interface{}{"maintenance": entry})
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleProbe reads the printer at the given IP over SNMP and records the
// serial number when the registry has none.
func (api *API) handleProbe(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if api.prober == nil {
		writeError(w, http.StatusNotImplemented, "snmp probing is disabled")
		return
	}
	var body struct {
		IP string `json:"ip"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if body.IP == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "ip required", Field: "ip"})
		return
	}

	p, err := api.store.GetPrinter(r.Context(), id)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	res, err := api.prober.Probe(r.Context(), body.IP)
	if errors.Is(err, probe.ErrInvalidTarget) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "ip", Value: body.IP})
		return
	}
	if err != nil {
		api.warnRepeated("probe:"+body.IP, "Probe failed", "id", id, "ip", body.IP, "error", err)
		writeError(w, http.StatusBadGateway, "probe failed: "+err.Error())
		return
	}

	updated := false
	if p.SerialNumber == "" && res.Serial != "" {
		p.SerialNumber = res.Serial
		if err := api.store.UpdatePrinter(r.Context(), p); err != nil {
			api.writeDomainError(w, r, err)
			return
		}
		updated = true
	}

	api.publish(ws.MessageTypePrinterProbed, map[string]interface{}{"id": id, "result": res, "updated": updated})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"printer": p,
		"probe":   res,
		"updated": updated,
	})
}
