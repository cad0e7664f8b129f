package ginserver

import (
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/services/events"
)

// indexLimit caps the number of events rendered on the dashboard.
const indexLimit = 100

// Handler exposes the collector endpoints for event ingestion and inspection.
type Handler struct {
	svc *events.Service
}

// NewHandler wires an events service into a gin-compatible HTTP handler.
func NewHandler(svc *events.Service) *Handler {
	return &Handler{svc: svc}
}

var eventBatchPool = sync.Pool{
	New: func() any {
		batch := make([]domain.Event, 0, 64)
		return &batch
	},
}

func decodeEventBatch(r io.Reader) ([]domain.Event, func(), error) {
	buf := eventBatchPool.Get().(*[]domain.Event)
	items := (*buf)[:0]
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		eventBatchPool.Put(buf)
		return nil, func() {}, err
	}
	cleanup := func() {
		clear(items)
		*buf = items[:0]
		eventBatchPool.Put(buf)
	}
	return items, cleanup, nil
}

// cloneEvents copies the pooled slice and turns json.Number values into float64 so that
// stored events carry plain JSON numbers.
func cloneEvents(items []domain.Event) []domain.Event {
	if len(items) == 0 {
		return nil
	}
	clone := make([]domain.Event, len(items))
	for i, e := range items {
		data := make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			if n, ok := v.(json.Number); ok {
				if f, err := n.Float64(); err == nil {
					data[k] = f
					continue
				}
			}
			data[k] = v
		}
		clone[i] = domain.Event{Type: e.Type, Time: e.Time, Data: data}
	}
	return clone
}

// Ingest handles `POST /` and `POST /events` with a JSON array of events.
func (h *Handler) Ingest(c *gin.Context) {
	items, release, err := decodeEventBatch(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed batch"})
		return
	}
	batch := cloneEvents(items)
	release()

	accepted, err := h.svc.Ingest(c.Request.Context(), batch)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// ListEvents handles `GET /events?type=&marker=&limit=`.
func (h *Handler) ListEvents(c *gin.Context) {
	f := domain.EventFilter{
		Type:   domain.EventType(strings.TrimSpace(c.Query("type"))),
		Marker: strings.TrimSpace(c.Query("marker")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad limit"})
			return
		}
		f.Limit = n
	}

	evs, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		httpError(c, err)
		return
	}
	if evs == nil {
		evs = []domain.StoredEvent{}
	}
	c.JSON(http.StatusOK, evs)
}

// AggregateCounter handles `GET /counters/aggregate?name=&role=`.
func (h *Handler) AggregateCounter(c *gin.Context) {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	agg, err := h.svc.AggregateCounter(c.Request.Context(), name, c.Query("role"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// Index renders a basic HTML page with the latest received events.
func (h *Handler) Index(c *gin.Context) {
	evs, err := h.svc.List(c.Request.Context(), domain.EventFilter{Limit: indexLimit})
	if err != nil {
		httpError(c, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>events</title>")
	sb.WriteString("<style>body{font-family:system-ui,Arial,sans-serif}table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:6px 10px}</style>")
	sb.WriteString("</head><body>")
	sb.WriteString("<h1>Events</h1>")
	sb.WriteString("<table><tr><th>Time</th><th>Type</th><th>Marker</th><th>Data</th></tr>")
	for i := len(evs) - 1; i >= 0; i-- {
		e := evs[i]
		data, _ := json.Marshal(e.Data)
		sb.WriteString("<tr><td>")
		sb.WriteString(html.EscapeString(e.Time))
		sb.WriteString("</td><td>")
		sb.WriteString(html.EscapeString(string(e.Type)))
		sb.WriteString("</td><td>")
		sb.WriteString(html.EscapeString(e.Marker()))
		sb.WriteString("</td><td><code>")
		sb.WriteString(html.EscapeString(string(data)))
		sb.WriteString("</code></td></tr>")
	}
	sb.WriteString("</table></body></html>")

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sb.String()))
}

// Ping proxies `GET /ping` to the storage health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "db ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidEvent), errors.Is(err, domain.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
