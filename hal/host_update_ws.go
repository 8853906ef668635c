//go:build !tinygo

package hal

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/net/websocket"
)

// wsLink serves a WebSocket endpoint; every binary message is one frame.
type wsLink struct {
	cfg HostUpdateConfig
	srv *http.Server
	ln  net.Listener
}

func (l *wsLink) start(r *updateReceiver) error {
	path := l.cfg.Path
	if path == "" {
		path = "/ota"
	}
	serve := websocket.Server{Handler: websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		r.log.WriteLineString("update: ws client " + ws.Request().RemoteAddr)
		for {
			var b []byte
			if err := websocket.Message.Receive(ws, &b); err != nil {
				if !errors.Is(err, io.EOF) {
					r.fault(UpdateErrConnect, err)
				}
				return
			}
			r.post(b)
		}
	})}

	mux := http.NewServeMux()
	mux.Handle(path, l.basicAuth(r, serve))

	ln, err := net.Listen("tcp", l.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.cfg.Listen, err)
	}
	l.ln = ln
	l.srv = &http.Server{Handler: mux}
	r.log.WriteLineString("update: ws listening on " + ln.Addr().String() + path)
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.fault(UpdateErrConnect, err)
		}
	}()
	return nil
}

func (l *wsLink) basicAuth(r *updateReceiver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if l.cfg.User == "" {
			next.ServeHTTP(w, req)
			return
		}
		user, pass, ok := req.BasicAuth()
		if ok {
			want := sha256.Sum256([]byte(l.cfg.User + ":" + l.cfg.Password))
			got := sha256.Sum256([]byte(user + ":" + pass))
			if subtle.ConstantTimeCompare(want[:], got[:]) == 1 {
				next.ServeHTTP(w, req)
				return
			}
		}
		r.fault(UpdateErrAuth, fmt.Errorf("rejected client %s", req.RemoteAddr))
		w.Header().Set("WWW-Authenticate", `Basic realm="ota", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// Addr reports the bound listener address.
func (l *wsLink) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

func (l *wsLink) Close() error {
	if l.srv == nil {
		return nil
	}
	return l.srv.Close()
}
