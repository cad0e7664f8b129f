package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/services/events"
)

type discardRepo struct{}

func (discardRepo) Append(context.Context, []domain.StoredEvent) error { return nil }

func (discardRepo) List(context.Context, domain.EventFilter) ([]domain.StoredEvent, error) {
	return nil, nil
}

func (discardRepo) Ping(context.Context) error { return nil }

func BenchmarkHandlerIngest(b *testing.B) {
	gin.SetMode(gin.ReleaseMode)

	handler := NewHandler(events.New(discardRepo{}))
	engine := gin.New()
	engine.POST("/events", handler.Ingest)

	items := make([]map[string]any, 0, 200)
	for i := range 100 {
		items = append(items,
			map[string]any{"type": "gauge", "time": testTime, "data": map[string]any{
				"marker": "bench", "role": fmt.Sprintf("g-%d", i), "value": float64(i),
			}},
			map[string]any{"type": "counter", "time": testTime, "data": map[string]any{
				"marker": "bench", "name": fmt.Sprintf("c-%d", i), "hits": i + 1, "sum": float64(i),
			}},
		)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		b.Fatalf("marshal: %v", err)
	}

	b.ReportAllocs()

	for b.Loop() {
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status: %d", w.Code)
		}
	}
}
