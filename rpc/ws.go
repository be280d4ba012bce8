package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"lottobox/core/events"
	"lottobox/native/factory"
	"lottobox/native/lottery"
	"lottobox/native/sponsors"
)

const (
	wsWriteTimeout    = 10 * time.Second
	wsSubscribeBuffer = 64
)

type eventEnvelope struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

// handleEventsWS streams committed node events to the client as JSON text
// frames. Events emitted by reverted operations never reach this stream.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	if err := s.streamEvents(r.Context(), conn); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn) error {
	updates, cancel := s.node.EventsSubscribe(wsSubscribeBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	data, err := json.Marshal(eventEnvelope{Type: evt.EventType(), Event: eventPayload(evt)})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// eventPayload renders an event with the same address and campaign-id
// encodings the request surface uses.
func eventPayload(evt events.Event) interface{} {
	switch e := evt.(type) {
	case sponsors.RegisteredEvent:
		return map[string]string{
			"account": formatAddress(e.Account),
			"sponsor": formatAddress(e.Sponsor),
		}
	case sponsors.ActivatedEvent:
		return map[string]string{
			"account": formatAddress(e.Account),
			"id":      formatCampaignID(e.CampaignID),
		}
	case lottery.CreatedEvent:
		return map[string]interface{}{
			"id":       formatCampaignID(e.ID),
			"year":     e.Year,
			"sequence": e.Sequence,
			"name":     e.Name,
		}
	case lottery.PurchasedEvent:
		return map[string]interface{}{
			"id":         formatCampaignID(e.ID),
			"buyer":      formatAddress(e.Buyer),
			"amount":     e.Amount,
			"firstBox":   e.FirstBox,
			"lastBox":    e.LastBox,
			"netAmount":  e.NetAmount.String(),
			"totalPrice": e.TotalPrice.String(),
		}
	case lottery.CompletedEvent:
		return map[string]interface{}{
			"id":            formatCampaignID(e.ID),
			"winningNumber": e.WinningNumber,
		}
	case lottery.WithdrawnEvent:
		return map[string]interface{}{
			"id":        formatCampaignID(e.ID),
			"recipient": formatAddress(e.Recipient),
			"amount":    e.Amount.String(),
		}
	case factory.OwnershipTransferredEvent:
		return map[string]string{
			"previousOwner": formatAddress(e.PreviousOwner),
			"newOwner":      formatAddress(e.NewOwner),
		}
	case factory.CommissionPaidEvent:
		return map[string]interface{}{
			"id":     formatCampaignID(e.CampaignID),
			"buyer":  formatAddress(e.Buyer),
			"payee":  formatAddress(e.Payee),
			"amount": e.Amount.String(),
		}
	default:
		return evt
	}
}
