package web

import (
	"context"
	_ "embed"
	"errors"
	"github.com/allape/delaycam/codec"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/allape/gogger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

var l = gogger.New("display.web")

const (
	IndexHTMLPath   = "./ui/index.html"
	DefaultAddr     = ":8080"
	DefaultPath     = "/ws"
	ShutdownTimeout = 3 * time.Second
	WriteTimeout    = 5 * time.Second

	wsPathPlaceholder = "{{WS_PATH}}"
)

//go:embed ui/index.html
var IndexHTML string

type Status struct {
	Clients int    `json:"clients"`
	Shown   uint64 `json:"shown"`
}

type client struct {
	id     string
	conn   *websocket.Conn
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// offer queues bs for the client, replacing a frame it has not sent yet.
func (c *client) offer(bs []byte) {
	select {
	case c.frames <- bs:
		return
	default:
	}
	select {
	case <-c.frames:
	default:
	}
	select {
	case c.frames <- bs:
	default:
	}
}

// Server streams every shown frame to the connected browsers as JPEG over WebSocket.
type Server struct {
	display.Sink

	locker   sync.Locker
	clients  map[string]*client
	shown    uint64
	closed   bool
	server   *http.Server
	listener net.Listener
	quit     chan struct{}
	quitOnce sync.Once
	upgrader websocket.Upgrader

	Addr  string
	Path  string
	Cors  bool
	Codec codec.Codec
}

func (s *Server) Handler() http.Handler {
	if s.Cors {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if s.Cors {
		engine.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost},
		}))
	}

	engine.GET("/", s.handleIndex)
	engine.GET(s.Path, s.handleWebsocket)
	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Status())
	})
	engine.POST("/quit", func(c *gin.Context) {
		l.Info().Println("quit requested by", c.ClientIP())
		s.RequestQuit()
		c.String(http.StatusOK, "ok")
	})

	return engine
}

func (s *Server) handleIndex(c *gin.Context) {
	html := IndexHTML
	if stat, err := os.Stat(IndexHTMLPath); err == nil && !stat.IsDir() {
		content, err := os.ReadFile(IndexHTMLPath)
		if err != nil {
			l.Warn().Println("read", IndexHTMLPath, "error, serve embedded one:", err)
		} else {
			html = string(content)
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(strings.ReplaceAll(html, wsPathPlaceholder, s.Path)))
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Println("upgrade:", err)
		return
	}

	cl := &client{
		id:     uuid.NewString(),
		conn:   conn,
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
	}

	s.locker.Lock()
	if s.closed {
		s.locker.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[cl.id] = cl
	s.locker.Unlock()

	l.Info().Println("viewer connected:", cl.id, c.ClientIP())

	defer func() {
		s.locker.Lock()
		delete(s.clients, cl.id)
		s.locker.Unlock()
		cl.close()
		l.Info().Println("viewer disconnected:", cl.id)
	}()

	// reading is the only way to notice the browser went away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cl.close()
				return
			}
		}
	}()

	for {
		select {
		case <-cl.done:
			return
		case bs := <-cl.frames:
			_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			err := conn.WriteMessage(websocket.BinaryMessage, bs)
			if err != nil {
				l.Verbose().Println("write to", cl.id, "error:", err)
				return
			}
		}
	}
}

func (s *Server) Open() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.server != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.server = &http.Server{Handler: s.Handler()}

	go func() {
		err := s.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Println("serve:", err)
			s.RequestQuit()
		}
	}()

	l.Info().Printf("viewer listening on http://%s/", listener.Addr())

	return nil
}

// ListenAddr is the address the server actually listens on, nil before Open.
func (s *Server) ListenAddr() net.Addr {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Close() error {
	s.locker.Lock()
	if s.closed {
		s.locker.Unlock()
		return nil
	}
	s.closed = true
	server := s.server
	clients := make([]*client, 0, len(s.clients))
	for _, cl := range s.clients {
		clients = append(clients, cl)
	}
	s.locker.Unlock()

	for _, cl := range clients {
		cl.close()
	}

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

func (s *Server) Show(frame video.Frame) error {
	s.locker.Lock()
	if s.closed {
		s.locker.Unlock()
		return display.ErrClosed
	}
	s.shown++
	clients := make([]*client, 0, len(s.clients))
	for _, cl := range s.clients {
		clients = append(clients, cl)
	}
	s.locker.Unlock()

	if len(clients) == 0 {
		return nil
	}

	img, err := frame.Image()
	if err != nil {
		return err
	}
	bs, err := s.Codec.Encode(img)
	if err != nil {
		return err
	}

	for _, cl := range clients {
		cl.offer(bs)
	}

	return nil
}

func (s *Server) PollQuit(timeout time.Duration) bool {
	// a pending quit wins over an expired timeout
	select {
	case <-s.quit:
		return true
	default:
	}

	select {
	case <-s.quit:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Server) RequestQuit() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}

func (s *Server) Status() Status {
	s.locker.Lock()
	defer s.locker.Unlock()
	return Status{
		Clients: len(s.clients),
		Shown:   s.shown,
	}
}

type Options struct {
	Addr    string
	Path    string
	Cors    bool
	Quality int
}

func New(options *Options) *Server {
	if options == nil {
		options = &Options{}
	}

	addr := options.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	path := options.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &Server{
		locker:  &sync.Mutex{},
		clients: map[string]*client{},
		quit:    make(chan struct{}),
		Addr:    addr,
		Path:    path,
		Cors:    options.Cors,
		Codec:   &codec.JPEGEncoder{Quality: options.Quality},
	}
}
