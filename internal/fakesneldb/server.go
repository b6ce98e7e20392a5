// Package fakesneldb provides a scripted SnelDB line-protocol server for
// transport tests. It listens on a loopback TCP port (or a unix socket),
// reads one command line at a time and answers with whatever the configured
// handler returns, optionally delaying individual lines or dropping the
// connection — enough to exercise the client's framing state machine,
// drain heuristic and reconnect behavior without a real server.
package fakesneldb

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// Line is one scripted response line. Delay is applied before the line is
// written, which lets tests control what the client's drain poll sees.
type Line struct {
	Text  string
	Delay time.Duration
}

// L is shorthand for an undelayed line.
func L(text string) Line { return Line{Text: text} }

// Response scripts the server's reaction to one command.
type Response struct {
	Lines []Line
	// DropConnection closes the connection right after the lines (or, with
	// no lines, instead of answering).
	DropConnection bool
}

// Server is the fake. Configure Handler before issuing commands.
type Server struct {
	// Handler maps a received command line to its scripted response.
	Handler func(command string) Response

	listener net.Listener

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	commands []string
	closed   bool
	wg       sync.WaitGroup
}

// Start listens on an ephemeral loopback port and serves connections until
// Close.
func Start(handler func(command string) Response) (*Server, error) {
	return listen("tcp", "127.0.0.1:0", handler)
}

// StartUnix serves the same protocol on a unix socket at path.
func StartUnix(path string, handler func(command string) Response) (*Server, error) {
	return listen("unix", path, handler)
}

func listen(network, addr string, handler func(command string) Response) (*Server, error) {
	listener, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Handler:  handler,
		listener: listener,
		conns:    make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns host:port of the listening socket.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Port returns the listening TCP port.
func (s *Server) Port() int { return s.listener.Addr().(*net.TCPAddr).Port }

// Commands returns every command line received so far.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// Close stops the listener and drops all open connections.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		command := scanner.Text()
		s.mu.Lock()
		s.commands = append(s.commands, command)
		handler := s.Handler
		s.mu.Unlock()

		if handler == nil {
			continue
		}
		resp := handler(command)
		for _, line := range resp.Lines {
			if line.Delay > 0 {
				time.Sleep(line.Delay)
			}
			if _, err := conn.Write([]byte(line.Text + "\n")); err != nil {
				return
			}
		}
		if resp.DropConnection {
			return
		}
	}
}
