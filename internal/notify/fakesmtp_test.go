package notify

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeSMTP is a single-session SMTP server good enough for net/smtp.
type fakeSMTP struct {
	ln       net.Listener
	tlsConf  *tls.Config
	starttls bool
	roots    *x509.CertPool

	mu     sync.Mutex
	secure bool
	auth   string
	from   string
	rcpt   string
	data   string
	done   chan struct{}
}

func newFakeSMTP(t *testing.T, starttls bool) *fakeSMTP {
	t.Helper()

	// borrow httptest's certificate, valid for 127.0.0.1
	certSrv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(certSrv.Close)
	roots := x509.NewCertPool()
	roots.AddCert(certSrv.Certificate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	s := &fakeSMTP{
		ln:       ln,
		tlsConf:  &tls.Config{Certificates: certSrv.TLS.Certificates},
		starttls: starttls,
		roots:    roots,
		done:     make(chan struct{}),
	}
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	defer close(s.done)

	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	r := bufio.NewReader(conn)
	reply := func(lines ...string) {
		for _, l := range lines {
			_, _ = conn.Write([]byte(l + "\r\n"))
		}
	}

	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb, arg, _ := strings.Cut(line, " ")

		switch strings.ToUpper(verb) {
		case "EHLO", "HELO":
			s.mu.Lock()
			secured := s.secure
			s.mu.Unlock()
			if !secured && s.starttls {
				reply("250-fake", "250-STARTTLS", "250 8BITMIME")
			} else {
				reply("250-fake", "250-AUTH PLAIN", "250 8BITMIME")
			}
		case "STARTTLS":
			reply("220 go ahead")
			tc := tls.Server(conn, s.tlsConf)
			if err := tc.Handshake(); err != nil {
				return
			}
			conn = tc
			r = bufio.NewReader(conn)
			s.mu.Lock()
			s.secure = true
			s.mu.Unlock()
		case "AUTH":
			_, initial, _ := strings.Cut(arg, " ")
			decoded, _ := base64.StdEncoding.DecodeString(initial)
			s.mu.Lock()
			s.auth = string(decoded)
			s.mu.Unlock()
			reply("235 2.7.0 ok")
		case "MAIL":
			s.mu.Lock()
			s.from = arg
			s.mu.Unlock()
			reply("250 ok")
		case "RCPT":
			s.mu.Lock()
			s.rcpt = arg
			s.mu.Unlock()
			reply("250 ok")
		case "DATA":
			reply("354 end with .")
			var sb strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(l)
			}
			s.mu.Lock()
			s.data = sb.String()
			s.mu.Unlock()
			reply("250 queued")
		case "NOOP", "RSET":
			reply("250 ok")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 " + strconv.Quote(verb) + " not implemented")
		}
	}
}
