package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// EventsHandler streams configuration mutation events over SSE.
type EventsHandler struct {
	svc *Services
}

func NewEventsHandler(svc *Services) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func (h *EventsHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/crud/events", h.StreamEvents, huma.OperationTags("events"))
}

// StreamEvents subscribes the caller to the event bus and relays each
// mutation as one SSE data frame until the client disconnects.
func (h *EventsHandler) StreamEvents(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			humaCtx.SetHeader("Content-Type", "text/event-stream")
			humaCtx.SetHeader("Cache-Control", "no-cache")
			humaCtx.SetHeader("Connection", "keep-alive")

			r, w := humago.Unwrap(humaCtx)
			flusher, ok := w.(http.Flusher)
			if !ok {
				h.svc.Logger.Error("response writer does not support flushing, closing event stream")
				return
			}

			ch := h.svc.Crud.Bus().Subscribe()
			defer h.svc.Crud.Bus().Unsubscribe(ch)

			for {
				select {
				case <-r.Context().Done():
					return
				case e, open := <-ch:
					if !open {
						return
					}
					data, err := json.Marshal(e)
					if err != nil {
						h.svc.Logger.Error("encoding event", "error", err)
						continue
					}
					fmt.Fprintf(w, "data: %s\n\n", data)
					flusher.Flush()
				}
			}
		},
	}, nil
}
