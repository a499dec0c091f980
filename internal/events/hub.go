package events

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"mediatracker/pkg/models"
)

const (
	writeTimeout = 2 * time.Second

	// BacklogSize is how many recent events the hub keeps for catch-up.
	BacklogSize = 64
)

const (
	transportTCP = "tcp"
	transportWS  = "websocket"
)

type subscriber interface {
	send(line []byte) error
	close()
}

type tcpSubscriber struct{ conn net.Conn }

func (s *tcpSubscriber) send(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := s.conn.Write(line)
	return err
}

func (s *tcpSubscriber) close() { _ = s.conn.Close() }

type wsSubscriber struct{ conn *websocket.Conn }

func (s *wsSubscriber) send(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, line)
}

func (s *wsSubscriber) close() { _ = s.conn.Close() }

type retained struct {
	ev   RecordEvent
	line []byte
}

// Hub numbers record events, retains the most recent ones, and writes each
// event to every subscriber in publish order. A subscriber whose write fails
// is dropped.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	backlog []retained
	subs    map[subscriber]string
}

type Stats struct {
	Seq        uint64 `json:"seq"`
	TCPClients int    `json:"tcpClients"`
	WSClients  int    `json:"wsClients"`
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subscriber]string)}
}

// Publish records a change to rec and delivers it before returning, so
// events from one caller reach subscribers in call order.
func (h *Hub) Publish(typ string, rec models.TrackedRecord) RecordEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev := newRecordEvent(h.seq, typ, rec)
	line, err := encodeLine(ev)
	if err != nil {
		log.Error().Str("component", "events").Err(err).Msg("marshal event")
		return ev
	}

	h.backlog = append(h.backlog, retained{ev: ev, line: line})
	if len(h.backlog) > BacklogSize {
		h.backlog = append([]retained(nil), h.backlog[len(h.backlog)-BacklogSize:]...)
	}

	for s := range h.subs {
		if err := s.send(line); err != nil {
			log.Debug().Str("component", "events").Str("transport", h.subs[s]).Err(err).Msg("dropping subscriber")
			delete(h.subs, s)
			s.close()
		}
	}
	return ev
}

// Since returns the retained events with Seq greater than seq, oldest first.
func (h *Hub) Since(seq uint64) []RecordEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []RecordEvent{}
	for _, r := range h.backlog {
		if r.ev.Seq > seq {
			out = append(out, r.ev)
		}
	}
	return out
}

// subscribe sends the welcome line and, when since is set, the retained
// events after it, then registers s. Doing both under the lock means no
// event is missed or repeated between replay and live delivery.
func (h *Hub) subscribe(s subscriber, transport string, since *uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	welcome, err := encodeLine(Welcome{Type: TypeWelcome, Transport: transport, Seq: h.seq})
	if err != nil {
		return err
	}
	if err := s.send(welcome); err != nil {
		return err
	}
	if since != nil {
		for _, r := range h.backlog {
			if r.ev.Seq <= *since {
				continue
			}
			if err := s.send(r.line); err != nil {
				return err
			}
		}
	}
	h.subs[s] = transport
	return nil
}

func (h *Hub) unsubscribe(s subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.close()
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := Stats{Seq: h.seq}
	for _, transport := range h.subs {
		if transport == transportTCP {
			st.TCPClients++
		} else {
			st.WSClients++
		}
	}
	return st
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
