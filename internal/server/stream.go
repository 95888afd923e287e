package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamReadLimit    = 4096
)

var streamUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// streamReply answers one page request on the websocket. Exactly one of
// Page and Error is set.
type streamReply struct {
	Page  *TimelinePage `json:"page,omitempty"`
	Error string        `json:"error,omitempty"`
}

// handleHistoryWS serves continuous scrolling: each client message is a
// TimelineRequest and is answered with that page, markers included.
func (s *Server) handleHistoryWS(w http.ResponseWriter, r *http.Request) {
	header := http.Header{RequestIDHeader: []string{requestID(r.Context())}}
	conn, err := streamUpgrader.Upgrade(w, r, header)
	if err != nil {
		return
	}
	s.serveStream(r, conn)
}

func (s *Server) serveStream(r *http.Request, conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	for {
		var req TimelineRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("history stream closed")
			}
			return
		}

		reply := streamReply{}
		req, err := s.normalize(req)
		if err == nil {
			var page TimelinePage
			page, err = s.timeline(ctx, req)
			if err == nil {
				reply.Page = &page
			} else {
				log.Error().Err(err).Int("page", req.Page).Msg("render timeline page")
			}
		}
		if err != nil {
			reply.Error = err.Error()
		}

		if err := writeStreamReply(conn, reply); err != nil {
			return
		}
	}
}

func writeStreamReply(conn *websocket.Conn, reply streamReply) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(reply)
}
