package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"historyview/internal/history"
	"historyview/internal/i18n"
	"historyview/internal/metrics"
	"historyview/internal/models"
	"historyview/internal/storage"
)

// Options configure the HTTP server.
type Options struct {
	Addr           string
	PageSize       int
	MaxPageSize    int
	HideRecipients bool
	// Now is the clock used for expiry decisions; defaults to time.Now.
	Now func() time.Time
}

// Server wraps HTTP serving of the history API.
type Server struct {
	httpServer  *http.Server
	store       storage.Store
	resolver    *history.Resolver
	format      i18n.Formatter
	assembler   *history.Assembler
	pageSize    int
	maxPageSize int
	now         func() time.Time
	log         zerolog.Logger
}

// New creates a configured HTTP server for the history views.
func New(opts Options, store storage.Store, format i18n.Formatter, log zerolog.Logger) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = opts.PageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var assemblerOpts []history.AssemblerOption
	if opts.HideRecipients {
		assemblerOpts = append(assemblerOpts, history.WithHiddenRecipients())
	}
	resolver := history.NewResolver(format)

	mux := http.NewServeMux()
	s := &Server{
		store:       store,
		resolver:    resolver,
		format:      format,
		assembler:   history.NewAssembler(resolver, store, assemblerOpts...),
		pageSize:    opts.PageSize,
		maxPageSize: opts.MaxPageSize,
		now:         opts.Now,
		log:         log,
	}
	s.registerRoutes(mux)
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.withRequestLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history", getOnly(s.handleHistory))
	mux.HandleFunc("/api/history/ws", getOnly(s.handleHistoryWS))
	mux.HandleFunc("/api/history/summary", getOnly(s.handleSummary))
	mux.HandleFunc("/api/notifications", getOnly(s.handleNotifications))
	mux.HandleFunc("/api/event", getOnly(s.handleEvent))
	mux.HandleFunc("/api/event/recipients", getOnly(s.handleRecipients))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// TimelineRequest selects one page of the timeline.
type TimelineRequest struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	ObjectType models.ObjectType `json:"object_type,omitempty"`
	EventType  models.EventType  `json:"event_type,omitempty"`
	Host       string            `json:"host,omitempty"`
}

// TimelinePage is the rendered answer to a TimelineRequest.
type TimelinePage struct {
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Entries []history.Entry `json:"entries"`
	Skipped int             `json:"skipped"`
}

// NotificationsPage is one page of the notification listing. ShowMore is set
// when matches remain beyond this page; EmptyState when there are none.
type NotificationsPage struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int               `json:"total"`
	Entries    []history.Entry   `json:"entries"`
	Skipped    int               `json:"skipped"`
	ShowMore   *history.ShowMore `json:"show_more,omitempty"`
	EmptyState string            `json:"empty_state,omitempty"`
}

// EventDetail is the answer of the event endpoint. Entry is absent when the
// record cannot be resolved; Problem then says why.
type EventDetail struct {
	Entry    *history.Facts    `json:"entry,omitempty"`
	Sections []history.Section `json:"sections"`
	Problem  string            `json:"problem,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) normalize(req TimelineRequest) (TimelineRequest, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = s.pageSize
	}
	if req.Limit > s.maxPageSize {
		req.Limit = s.maxPageSize
	}
	if req.ObjectType != "" && !req.ObjectType.IsValid() {
		return req, fmt.Errorf("%w: %q", models.ErrUnknownObjectType, req.ObjectType)
	}
	if req.EventType != "" && !req.EventType.IsValid() {
		return req, fmt.Errorf("%w: %q", models.ErrUnknownEventType, req.EventType)
	}
	return req, nil
}

// timeline fetches exactly one page window and paginates it from the
// requested page, so a resumed page opens with its marker.
func (s *Server) timeline(ctx context.Context, req TimelineRequest) (TimelinePage, error) {
	q := storage.PageQuery(req.Page, req.Limit)
	q.ObjectType = req.ObjectType
	q.EventType = req.EventType
	q.Host = req.Host

	src, err := s.store.History(ctx, q)
	if err != nil {
		return TimelinePage{}, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	page := TimelinePage{Page: req.Page, Limit: req.Limit}
	page.Entries, page.Skipped, err = s.render(ctx, src, req)
	if err != nil {
		return TimelinePage{}, err
	}
	return page, nil
}

// notifications renders one page of the send-time ordered notification
// listing.
func (s *Server) notifications(ctx context.Context, req TimelineRequest) (NotificationsPage, error) {
	q := storage.PageQuery(req.Page, req.Limit)
	q.ObjectType = req.ObjectType
	q.Host = req.Host

	list, err := s.store.Notifications(ctx, q)
	if err != nil {
		return NotificationsPage{}, err
	}

	page := NotificationsPage{Page: req.Page, Limit: req.Limit, Total: list.Total}
	page.Entries, page.Skipped, err = s.render(ctx, history.NewSliceSource(list.Records), req)
	if err != nil {
		return NotificationsPage{}, err
	}
	switch {
	case list.Total == 0:
		page.EmptyState = s.format.Sprintf(i18n.MsgNoNotifications)
	case req.Page*req.Limit < list.Total:
		page.ShowMore = &history.ShowMore{
			Label: s.format.Sprintf(i18n.MsgShowAllNotifications, list.Total),
			Total: list.Total,
		}
	}
	return page, nil
}

func (s *Server) render(ctx context.Context, src history.Source, req TimelineRequest) ([]history.Entry, int, error) {
	p, err := history.Paginate(src, req.Limit, req.Page)
	if err != nil {
		return nil, 0, err
	}

	skipped := 0
	log := zerolog.Ctx(ctx)
	entries, err := history.Render(ctx, p, s.resolver, s.now(), func(rec *models.EventRecord, err error) {
		skipped++
		log.Warn().Err(err).Str("event", rec.ID.String()).Msg("skipping unrenderable history record")
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := s.normalize(TimelineRequest{
		Page:       parseInt(query.Get("page"), 1),
		Limit:      parseInt(query.Get("limit"), s.pageSize),
		ObjectType: models.ObjectType(query.Get("object_type")),
		EventType:  models.EventType(query.Get("event_type")),
		Host:       query.Get("host"),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	page, err := s.timeline(r.Context(), req)
	if err != nil {
		s.internalError(w, r, "render timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := s.normalize(TimelineRequest{
		Page:       parseInt(query.Get("page"), 1),
		Limit:      parseInt(query.Get("limit"), s.pageSize),
		ObjectType: models.ObjectType(query.Get("object_type")),
		Host:       query.Get("host"),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	page, err := s.notifications(r.Context(), req)
	if err != nil {
		s.internalError(w, r, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req, err := s.normalize(TimelineRequest{
		ObjectType: models.ObjectType(query.Get("object_type")),
		Host:       query.Get("host"),
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	src, err := s.store.History(r.Context(), storage.Query{ObjectType: req.ObjectType, Host: req.Host})
	if err != nil {
		s.internalError(w, r, "load history", err)
		return
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	var records []*models.EventRecord
	for {
		rec, err := src.Next(r.Context())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.internalError(w, r, "load history", err)
			return
		}
		records = append(records, rec)
	}

	summary := metrics.Summarize(records)
	if summary == nil {
		summary = []metrics.ObjectSummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sections, err := s.assembler.Assemble(r.Context(), rec, s.now())
	if err != nil {
		if models.IsIntegrityError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err)
			return
		}
		s.internalError(w, r, "assemble event detail", err)
		return
	}

	detail := EventDetail{Sections: sections}
	facts, err := s.resolver.Resolve(rec, s.now())
	if err != nil {
		detail.Problem = err.Error()
	} else {
		detail.Entry = &facts
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if rec.EventType != models.EventNotification {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("event %s is not a notification", rec.ID))
		return
	}

	page, err := s.store.NotifiedUsers(r.Context(), rec.ID, 0)
	if err != nil {
		s.internalError(w, r, "load recipients", err)
		return
	}
	writeJSON(w, http.StatusOK, page.Users)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.EventRecord, bool) {
	id, err := models.ParseEventID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	rec, err := s.store.Event(r.Context(), id)
	if errors.Is(err, storage.ErrEventNotFound) {
		writeError(w, r, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		s.internalError(w, r, "load event", err)
		return nil, false
	}
	return rec, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, what string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(what)
	writeError(w, r, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h(w, r)
	}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: requestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
