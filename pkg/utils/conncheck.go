package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/mpapenbr/raceanalysis-service/log"
)

const retryInterval = 200 * time.Millisecond

// WaitForTCP dials addr until it succeeds, the timeout is reached or ctx is done
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.Duration("timeout", timeout))
	var d net.Dialer
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.Duration("duration", time.Since(start)))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, time.Since(start).Round(time.Millisecond))
		case <-ticker.C:
		}
	}
}

var defaultPorts = map[string]string{
	"postgresql": "5432",
	"postgres":   "5432",
	"nats":       "4222",
	"tls":        "4222",
	"redis":      "6379",
	"rediss":     "6379",
}

// ExtractFromDBURL returns host:port of a postgresql:// connection string
func ExtractFromDBURL(dbURL string) string {
	return hostPort(dbURL, "postgresql", "postgres")
}

// ExtractFromServiceURL returns host:port of urls like nats://host:4222 or
// redis://user:pw@host/0. The port of the scheme is used if none is given.
func ExtractFromServiceURL(serviceURL string) string {
	return hostPort(serviceURL, "nats", "tls", "redis", "rediss")
}

func hostPort(raw string, schemes ...string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	for _, s := range schemes {
		if u.Scheme != s {
			continue
		}
		port := u.Port()
		if port == "" {
			port = defaultPorts[s]
		}
		return net.JoinHostPort(u.Hostname(), port)
	}
	return ""
}
