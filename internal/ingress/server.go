// Package ingress runs and tracks the plain HTTP file servers that stage tools
// for transfer onto targets.
package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler serves dir as a browsable file tree and logs each request
func Handler(dir string, log logrus.FieldLogger) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "path": r.URL.Path}).Info("ingress request")
		files.ServeHTTP(w, r)
	})
}

// Serve blocks serving dir on addr until ctx is cancelled
func Serve(ctx context.Context, dir, addr string, log logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serveOn(ctx, ln, dir, log)
}

func serveOn(ctx context.Context, ln net.Listener, dir string, log logrus.FieldLogger) error {
	srv := &http.Server{
		Handler:           Handler(dir, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.WithFields(logrus.Fields{"dir": dir, "addr": ln.Addr().String()}).Info("ingress serving")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
