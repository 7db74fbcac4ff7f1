// Package telnettest runs a small scripted Telnet host on the loopback
// interface. It offers a few options, asks for a username and password, and
// then echoes commands back behind a shell prompt.
package telnettest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"telpy/internal/telnet"
)

// Banner is sent before the first login prompt.
const Banner = "telnettest host\r\n"

// Server is a fake Telnet host accepting one set of credentials.
type Server struct {
	Username string
	Password string
	// Offers is sent as IAC triples as soon as a client connects.
	Offers [][2]byte
	// Prompt is the shell prompt shown after a successful login.
	Prompt string

	ln     net.Listener
	logger *slog.Logger
	wg     sync.WaitGroup

	mu       sync.Mutex
	received []telnet.Event // negotiation received from clients
	lines    []string       // lines received from clients
}

// NewServer listens on a random loopback port and starts serving.
func NewServer(username, password string, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		Username: username,
		Password: password,
		Offers: [][2]byte{
			{telnet.DO, telnet.TType},
			{telnet.WILL, telnet.Echo},
			{telnet.WILL, telnet.SGA},
			{telnet.DO, telnet.NAWS},
		},
		Prompt: "$ ",
		ln:     ln,
		logger: logger,
	}

	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops accepting and waits for open connections to finish.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

// Received returns the negotiation commands clients have sent.
func (s *Server) Received() []telnet.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]telnet.Event(nil), s.received...)
}

// Lines returns every line clients have sent, credentials included.
func (s *Server) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *Server) serve() {
	defer s.wg.Done()
	s.logger.Info("Telnet test server listening", "addr", s.Addr())

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Telnet accept error", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	logger := s.logger.With("addr", conn.RemoteAddr())
	logger.Debug("Telnet connection from")

	c := &clientConn{conn: conn, server: s, scanner: telnet.NewScanner(), writer: telnet.NewWriter(conn)}

	for _, offer := range s.Offers {
		if err := c.writer.WriteCommand(offer[0], offer[1]); err != nil {
			return
		}
	}
	if _, err := io.WriteString(conn, Banner); err != nil {
		return
	}

	for {
		ok, err := c.login()
		if err != nil {
			logger.Debug("Telnet connection closed", "err", err)
			return
		}
		if ok {
			break
		}
	}

	if err := c.shell(); err != nil && !errors.Is(err, io.EOF) {
		logger.Debug("Telnet connection closed", "err", err)
	}
}

type clientConn struct {
	conn    net.Conn
	server  *Server
	scanner *telnet.Scanner
	writer  *telnet.Writer
	line    bytes.Buffer
	lines   []string
}

func (c *clientConn) login() (bool, error) {
	if _, err := io.WriteString(c.conn, "login: "); err != nil {
		return false, err
	}
	user, err := c.readLine()
	if err != nil {
		return false, err
	}
	if _, err := io.WriteString(c.conn, "Password: "); err != nil {
		return false, err
	}
	pass, err := c.readLine()
	if err != nil {
		return false, err
	}

	if user != c.server.Username || pass != c.server.Password {
		_, err := io.WriteString(c.conn, "\r\nLogin incorrect\r\n")
		return false, err
	}
	_, err = fmt.Fprintf(c.conn, "Last login: never\r\n%s", c.server.Prompt)
	return true, err
}

func (c *clientConn) shell() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line == "exit" {
			_, err := io.WriteString(c.conn, "logout\r\n")
			return err
		}
		if _, err := fmt.Fprintf(c.conn, "%s\r\nyou said: %s\r\n%s", line, line, c.server.Prompt); err != nil {
			return err
		}
	}
}

// readLine returns the next line from the client with the terminator
// stripped, recording any negotiation seen along the way.
func (c *clientConn) readLine() (string, error) {
	buf := make([]byte, 1024)
	for len(c.lines) == 0 {
		n, err := c.conn.Read(buf)
		for _, ev := range c.scanner.Scan(buf[:n]) {
			if ev.Kind != telnet.EventData {
				c.server.record(ev)
				continue
			}
			c.split(ev.Data)
		}
		if err != nil {
			return "", err
		}
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	c.server.mu.Lock()
	c.server.lines = append(c.server.lines, line)
	c.server.mu.Unlock()
	return line, nil
}

func (c *clientConn) split(data []byte) {
	for _, b := range data {
		switch b {
		case '\r':
		case '\n':
			c.lines = append(c.lines, c.line.String())
			c.line.Reset()
		default:
			c.line.WriteByte(b)
		}
	}
}

func (s *Server) record(ev telnet.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, ev)
}
