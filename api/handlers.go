/*
handlers.go - HTTP handlers for the records engine

PURPOSE:
  Exposes the engine's four contracts over REST: transitions, reconciliation,
  bulk operations and analytics, plus record creation and the report-row
  projection consumed by the export layer.

ENDPOINTS:
  Records:
    POST   /api/payments                      Create a fee obligation
    POST   /api/incidents                     Report an absence or late
    POST   /api/cards                         Generate (or regenerate) a card
    GET    /api/records                       List with filters
    GET    /api/records/{id}                  Record with derived fields

  Transitions:
    POST   /api/payments/{id}/settlements     Record a settlement
    POST   /api/incidents/{id}/justify        Justify an incident
    POST   /api/incidents/{id}/unjustified    Administrative override
    POST   /api/incidents/{id}/notify         Notify the guardian
    POST   /api/cards/{id}/submit             Draft -> pending validation
    POST   /api/cards/{id}/validate           Issue the card
    POST   /api/cards/{id}/print              Print (idempotent)

  Bulk:
    POST   /api/bulk/justify                  Justify many incidents
    POST   /api/bulk/reminders                Remind many unpaid fees

  Read side:
    GET    /api/analytics                     Window summary + breakdowns
    GET    /api/reports/rows                  Flat export rows

ERROR HANDLING:
  Typed domain errors map to HTTP status:
  - 400 validation / illegal transition
  - 404 unknown id
  - 409 idempotence guards (already settled/justified, duplicate card)
  Bulk endpoints always answer 200 with the per-item outcome.
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/records-engine/absence"
	"github.com/campusops/records-engine/card"
	"github.com/campusops/records-engine/payment"
	"github.com/campusops/records-engine/records"
)

var validate = validator.New()

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the engine wiring for the HTTP surface.
type Handler struct {
	Store    records.Store
	Notifier records.Notifier
	Log      *zap.Logger

	// Clock returns "today"; injectable for tests.
	Clock func() records.Date

	payments payment.Engine
	absences absence.Engine
	lates    absence.Engine
	cards    card.Engine
	cardSvc  *card.Service
	bulk     *records.Coordinator
	reminder *payment.Reminder
	guardian *absence.Notifier
}

// NewHandler wires the engines around the given collaborators. Guardian
// contact lookup is a directory concern; until one is plugged in the
// subject reference is used as the recipient address.
func NewHandler(store records.Store, notifier records.Notifier, log *zap.Logger) *Handler {
	recipient := func(r records.Record) string { return "guardian:" + string(r.SubjectID) }
	h := &Handler{
		Store:    store,
		Notifier: notifier,
		Log:      log,
		Clock:    records.Today,
		absences: absence.NewEngine(records.KindAbsence),
		lates:    absence.NewEngine(records.KindLate),
		bulk:     &records.Coordinator{Store: store, Workers: 4},
	}
	h.cardSvc = &card.Service{Store: store, Engine: h.cards}
	h.reminder = &payment.Reminder{Notifier: notifier, Recipient: recipient, Channel: records.ChannelSMS, Log: log}
	h.guardian = &absence.Notifier{Dispatcher: notifier, Recipient: recipient, Log: log}
	return h
}

// =============================================================================
// RECORD CREATION
// =============================================================================

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decodeValid(w, r, &req) {
		return
	}
	due, err := records.ParseDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date", err)
		return
	}

	rec, err := payment.New(payment.NewPaymentInput{
		SubjectID: req.SubjectID,
		Category:  req.Category,
		Group:     req.Group,
		Total:     req.Total,
		DueDate:   due,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := h.Store.Create(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(created, h.Clock()))
}

func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if !decodeValid(w, r, &req) {
		return
	}
	day, err := records.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	rec, err := absence.New(absence.NewIncidentInput{
		SubjectID: req.SubjectID,
		Kind:      records.Kind(req.Kind),
		Course:    req.Course,
		Group:     req.Group,
		Date:      day,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := h.Store.Create(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(created, h.Clock()))
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !decodeValid(w, r, &req) {
		return
	}

	subject := records.SubjectID(req.SubjectID)
	var (
		rec records.Record
		err error
	)
	if req.Regenerate {
		rec, err = h.cardSvc.Regenerate(r.Context(), subject, req.Group, h.Clock())
	} else {
		rec, err = h.cardSvc.Generate(r.Context(), subject, req.Group, h.Clock())
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec, h.Clock()))
}

// =============================================================================
// READ SIDE
// =============================================================================

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := records.RecordID(chi.URLParam(r, "id"))
	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	asOf := h.Clock()
	writeJSON(w, http.StatusOK, map[string]any{
		"record":         toRecordDTO(rec, asOf),
		"reconciliation": toReconciliationDTO(records.Reconcile(rec, asOf)),
	})
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	recs, err := h.Store.Query(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Query failed", err)
		return
	}
	asOf := h.Clock()
	dtos := make([]RecordDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toRecordDTO(rec, asOf))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window", err)
		return
	}

	recs, err := h.Store.Query(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Query failed", err)
		return
	}

	asOf := h.Clock()
	dto := AnalyticsDTO{
		From:    window.Start.String(),
		To:      window.End.String(),
		Summary: toSummaryDTO(records.Aggregate(recs, window, asOf)),
	}

	switch r.URL.Query().Get("group_by") {
	case "":
	case "class":
		dto.Groups = summaryGroups(records.AggregateBy(recs, window, asOf, records.GroupByClass))
	case "category":
		dto.Groups = summaryGroups(records.AggregateBy(recs, window, asOf, records.GroupByCategory))
	default:
		writeError(w, http.StatusBadRequest, "Unknown group_by (use class or category)", nil)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ReportRows(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	recs, err := h.Store.Query(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Query failed", err)
		return
	}
	rows := records.Rows(recs, h.Clock())
	dtos := make([]ReportRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ReportRowDTO{
			Subject:  string(row.Subject),
			Category: row.Category,
			Period:   row.Period,
			Total:    row.Total,
			Paid:     row.Paid,
			Status:   string(row.Status),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (h *Handler) RecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req SettlementRequest
	if !decodeValid(w, r, &req) {
		return
	}
	act := payment.RecordSettlement{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Actor:     req.Actor,
	}
	if req.Date != "" {
		d, err := records.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		act.Date = d
	}
	h.transition(w, r, h.payments, act)
}

func (h *Handler) Justify(w http.ResponseWriter, r *http.Request) {
	var req JustifyRequest
	if !decodeValid(w, r, &req) {
		return
	}
	act := absence.Justify{Reason: req.Reason, Documents: req.Documents}
	if req.Date != "" {
		d, err := records.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		act.Date = d
	}
	h.incidentTransition(w, r, act)
}

func (h *Handler) MarkUnjustified(w http.ResponseWriter, r *http.Request) {
	h.incidentTransition(w, r, absence.MarkUnjustified{})
}

func (h *Handler) NotifyGuardian(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if !decodeValid(w, r, &req) {
		return
	}
	id := records.RecordID(chi.URLParam(r, "id"))
	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	next, err := h.guardian.NotifyGuardian(r.Context(), rec, records.Channel(req.Channel), req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := h.Store.Update(r.Context(), next)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(updated, h.Clock()))
}

func (h *Handler) SubmitCard(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.cards, card.Submit{})
}

func (h *Handler) ValidateCard(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.cards, card.Validate{Actor: r.URL.Query().Get("actor")})
}

func (h *Handler) PrintCard(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.cards, card.Print{})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, eng records.Engine, act records.Action) {
	id := records.RecordID(chi.URLParam(r, "id"))
	updated, err := records.Transition(r.Context(), h.Store, eng, id, act, h.Clock())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(updated, h.Clock()))
}

// incidentTransition routes to the absence or late engine based on the
// stored record's kind.
func (h *Handler) incidentTransition(w http.ResponseWriter, r *http.Request, act records.Action) {
	id := records.RecordID(chi.URLParam(r, "id"))
	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	eng := h.absences
	if rec.Kind == records.KindLate {
		eng = h.lates
	}
	updated, err := records.Transition(r.Context(), h.Store, eng, id, act, h.Clock())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(updated, h.Clock()))
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

func (h *Handler) BulkJustify(w http.ResponseWriter, r *http.Request) {
	var req BulkJustifyRequest
	if !decodeValid(w, r, &req) {
		return
	}
	eng := h.absences
	if records.Kind(req.Kind) == records.KindLate {
		eng = h.lates
	}
	act := records.EngineAction(eng, absence.Justify{Reason: req.Reason}, h.Clock())
	out := h.bulk.Run(r.Context(), toRecordIDs(req.IDs), act)
	h.logBulk("bulk justify", out)
	writeJSON(w, http.StatusOK, toBulkOutcomeDTO(out))
}

func (h *Handler) BulkRemind(w http.ResponseWriter, r *http.Request) {
	var req BulkRemindRequest
	if !decodeValid(w, r, &req) {
		return
	}
	reminder := *h.reminder
	reminder.Channel = records.Channel(req.Channel)
	out := h.bulk.Run(r.Context(), toRecordIDs(req.IDs), reminder.Action())
	h.logBulk("bulk remind", out)
	writeJSON(w, http.StatusOK, toBulkOutcomeDTO(out))
}

func (h *Handler) logBulk(op string, out records.BulkOutcome) {
	if h.Log == nil {
		return
	}
	h.Log.Info(op,
		zap.Int("succeeded", len(out.Succeeded)),
		zap.Int("skipped", len(out.Skipped)),
		zap.Int("failed", len(out.Failed)))
}

// =============================================================================
// HELPERS
// =============================================================================

func toReconciliationDTO(rec records.Reconciliation) ReconciliationDTO {
	return ReconciliationDTO{
		Remaining: rec.Remaining,
		Overdue:   rec.Overdue,
		Completed: rec.Completed,
		Punctual:  rec.Punctual,
	}
}

func summaryGroups(m map[string]records.Summary) map[string]SummaryDTO {
	out := make(map[string]SummaryDTO, len(m))
	for k, s := range m {
		out[k] = toSummaryDTO(s)
	}
	return out
}

func toRecordIDs(ids []string) []records.RecordID {
	out := make([]records.RecordID, len(ids))
	for i, id := range ids {
		out[i] = records.RecordID(id)
	}
	return out
}

func filterFromQuery(r *http.Request) (records.Filter, error) {
	q := r.URL.Query()
	f := records.Filter{
		Kind:      records.Kind(q.Get("kind")),
		SubjectID: records.SubjectID(q.Get("subject_id")),
		Group:     q.Get("group"),
	}
	if from := q.Get("from"); from != "" {
		d, err := records.ParseDate(from)
		if err != nil {
			return records.Filter{}, err
		}
		f.From = &d
	}
	if to := q.Get("to"); to != "" {
		d, err := records.ParseDate(to)
		if err != nil {
			return records.Filter{}, err
		}
		f.To = &d
	}
	return f, nil
}

func windowFromQuery(r *http.Request) (records.Window, error) {
	q := r.URL.Query()
	from, err := records.ParseDate(q.Get("from"))
	if err != nil {
		return records.Window{}, err
	}
	to, err := records.ParseDate(q.Get("to"))
	if err != nil {
		return records.Window{}, err
	}
	return records.Window{Start: from, End: to}, nil
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case records.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case records.IsAlreadyApplied(err):
		writeError(w, http.StatusConflict, "Action already applied", err)
	case records.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Rejected", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
