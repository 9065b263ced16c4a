// Package discovery lets clients find an upload server on the local
// network. The server answers UDP probes with its scheme and HTTP port;
// the client combines that with the address the answer came from.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"gopher-upload/internal/errors"
)

const (
	// DefaultPort is the UDP port servers listen on.
	DefaultPort = 9999

	// Message is the probe payload.
	Message = "DISCOVER_GOPHER_UPLOAD"

	defaultTimeout = 5 * time.Second
)

// Listen answers probes on UDP port until ctx is cancelled.
func Listen(ctx context.Context, port int, scheme string, httpPort int, logger *log.Logger) error {
	conn, err := net.ListenPacket("udp4", ":"+strconv.Itoa(port))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "bind discovery port %d", port)
	}
	logger.Info("discovery listening", "port", port)
	return Serve(ctx, conn, scheme, httpPort, logger)
}

// Serve answers probes read from conn and closes conn when ctx is done.
func Serve(ctx context.Context, conn net.PacketConn, scheme string, httpPort int, logger *log.Logger) error {
	reply := []byte(scheme + ":" + strconv.Itoa(httpPort))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		n, remote, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("discovery read failed", "err", err)
			continue
		}
		if string(buf[:n]) != Message {
			continue
		}
		logger.Debug("discovery probe", "from", remote)
		if _, err := conn.WriteTo(reply, remote); err != nil {
			logger.Warn("discovery reply failed", "to", remote, "err", err)
		}
	}
}

// Find broadcasts a probe on port and returns the base URL of the first
// server to answer. When broadcasting is not permitted it probes
// localhost instead. Without a deadline on ctx it waits five seconds.
func Find(ctx context.Context, port int) (string, error) {
	targets := []string{
		net.JoinHostPort("255.255.255.255", strconv.Itoa(port)),
		net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
	}
	return probe(ctx, targets)
}

// Query probes a single server address (host:port).
func Query(ctx context.Context, addr string) (string, error) {
	return probe(ctx, []string{addr})
}

func probe(ctx context.Context, targets []string) (string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "open discovery socket")
	}
	defer conn.Close()

	sent := false
	var lastErr error
	for _, target := range targets {
		addr, err := net.ResolveUDPAddr("udp4", target)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := conn.WriteTo([]byte(Message), addr); err != nil {
			lastErr = err
			continue
		}
		sent = true
		// the first target that accepts the probe is enough
		break
	}
	if !sent {
		return "", errors.Wrap(errors.ErrCodeNetwork, lastErr, "send discovery probe")
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "set deadline")
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, 1024)
	n, remote, err := conn.ReadFrom(buf)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "no server answered")
	}
	return baseURL(string(buf[:n]), remote)
}

// baseURL turns a "scheme:port" reply from remote into a URL.
func baseURL(reply string, remote net.Addr) (string, error) {
	scheme, port, ok := strings.Cut(reply, ":")
	if !ok || (scheme != "http" && scheme != "https") {
		return "", errors.New(errors.ErrCodeNetwork, "malformed discovery reply %q", reply)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", errors.New(errors.ErrCodeNetwork, "malformed discovery reply %q", reply)
	}
	udp, ok := remote.(*net.UDPAddr)
	if !ok {
		return "", errors.New(errors.ErrCodeNetwork, "unexpected reply address %s", remote)
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(udp.IP.String(), port)), nil
}
