package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"golang.org/x/net/netutil"
)

// callback is a short-lived local HTTP server that receives the authorization code at the end
// of an OAuth authorization code flow.
type callback struct {
	listener net.Listener
	server   *http.Server
	path     string
	state    string
	code     chan string
	err      chan error
}

func listen(bind, path, state string) (*callback, error) {
	l, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, err
	}

	cb := callback{
		listener: netutil.LimitListener(l, 4),
		path:     path,
		state:    state,
		code:     make(chan string, 1),
		err:      make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cb.handle)

	cb.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := cb.server.Serve(cb.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case cb.err <- err:
			default:
			}
		}
	}()

	return &cb, nil
}

// redirect returns the redirect URL to register with the OAuth authorization request.
func (cb *callback) redirect() string {
	port := cb.listener.Addr().(*net.TCPAddr).Port

	return fmt.Sprintf("http://localhost:%v%v", port, cb.path)
}

func (cb *callback) handle(w http.ResponseWriter, rq *http.Request) {
	if reason := rq.FormValue("error"); reason != "" {
		http.Error(w, "Authorisation declined", http.StatusForbidden)

		select {
		case cb.err <- fmt.Errorf("authorisation declined (%v)", reason):
		default:
		}

		return
	}

	if rq.FormValue("state") != cb.state {
		http.Error(w, "Invalid authorisation request", http.StatusBadRequest)
		return
	}

	code := rq.FormValue("code")
	if code == "" {
		http.Error(w, "Missing authorisation code", http.StatusBadRequest)
		return
	}

	fmt.Fprintln(w, "Authorised - you can close this window.")

	select {
	case cb.code <- code:
	default:
	}
}

// wait blocks until the authorization code is received, the flow fails, the context is done or
// the user hits CTRL-C.
func (cb *callback) wait(ctx context.Context) (string, error) {
	interrupt := make(chan os.Signal, 1)

	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		return "", ctx.Err()

	case <-interrupt:
		return "", fmt.Errorf("cancelled")

	case err := <-cb.err:
		return "", err

	case code := <-cb.code:
		return code, nil
	}
}

func (cb *callback) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cb.server.Shutdown(ctx); err != nil {
		warnf("%v", err)
	}
}

// browse prompts the user to open the URL and, if possible, opens it in the default browser.
func browse(url string) {
	fmt.Println()
	fmt.Println("  Open the following URL in your browser to authorise access:")
	fmt.Println()
	fmt.Printf("    %v\n", url)
	fmt.Println()

	if err := exec.Command(OPEN, url).Start(); err != nil {
		warnf("could not open the authorisation page in your browser (%v)", err)
	}
}
