package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/oskarw/quizparty/internal/protocol"
	"github.com/oskarw/quizparty/internal/room"
)

// wsConn adapts a coder/websocket connection to Conn.
type wsConn struct {
	c *websocket.Conn
}

func (w wsConn) Send(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w wsConn) Close(reason string) error {
	return w.c.Close(websocket.StatusNormalClosure, reason)
}

// Router exposes the host's HTTP surface: the websocket endpoint —
// mounted under the rendezvous identity derived from the room code, so
// only peers holding the code find it — and the join-link QR code.
func (h *Host) Router(publicURL string) *httprouter.Router {
	r := httprouter.New()
	r.GET("/ws/"+room.RendezvousID(h.opts.RoomCode), h.serveWS)
	r.GET("/join/qr", func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		h.serveQR(w, publicURL)
	})
	return r
}

// serveWS upgrades the request and runs the connection's pumps. The
// read pump feeds the host's serialized inbox; the write pump drains
// the peer's send queue.
func (h *Host) serveWS(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		// Guests join from phones on the local network; the host has no
		// fixed origin to pin.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.WithError(err).Warn("websocket accept")
		return
	}

	p := &peer{
		id:   uuid.New(),
		conn: wsConn{c},
		send: make(chan []byte, sendQueueSize),
	}
	h.inbox <- cmdConnOpened{p: p}

	ctx := req.Context()
	go writePump(ctx, p)
	h.readPump(ctx, p, c)
}

func writePump(ctx context.Context, p *peer) {
	for data := range p.send {
		if err := p.conn.Send(ctx, data); err != nil {
			return
		}
	}
}

func (h *Host) readPump(ctx context.Context, p *peer, c *websocket.Conn) {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			h.inbox <- cmdConnClosed{connID: p.id, err: err}
			return
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			h.log.WithError(err).Debug("unreadable frame")
			continue
		}
		h.inbox <- cmdFrame{connID: p.id, env: env}
	}
}

// serveQR renders the join URL as a PNG QR code, so a phone can join
// by pointing its camera at the host's screen.
func (h *Host) serveQR(w http.ResponseWriter, publicURL string) {
	joinURL := fmt.Sprintf("%s/?room=%s", publicURL, h.opts.RoomCode)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
