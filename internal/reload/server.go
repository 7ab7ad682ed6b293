package reload

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/telemetry"
)

// ClientPath — путь, по которому отдаётся клиентский скрипт.
const ClientPath = "/__reload-client.js"

const (
	reloadMessage   = "reload"
	portPlaceholder = "__PORT__"
	scriptTag       = `<script src="` + ClientPath + `"></script>`
	defaultType     = "text/plain; charset=utf-8"
	writeWait       = 5 * time.Second
)

//go:embed client.js
var clientScript string

// client — одно подключение к reload-каналу.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Server — dev-сервер статики с reload-каналом.
type Server struct {
	cfg      Config
	fs       *fsx.FS
	logger   *slog.Logger
	root     string
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	clients    map[*client]struct{}
	reloadPort int
	started    bool
	httpSrv    *http.Server
	wsSrv      *http.Server
	httpAddr   net.Addr
	wsAddr     net.Addr
}

// New создаёт сервер. Поля Config с нулевыми значениями Directory и
// Fallback заменяются значениями по умолчанию.
func New(cfg Config, opts ...Option) *Server {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Directory == "" {
		cfg.Directory = DefaultDirectory
	}
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}
	if cfg.FS == nil {
		cfg.FS = fsx.New("")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		cfg:    cfg,
		fs:     cfg.FS,
		logger: cfg.Logger.With("component", "reload"),
		root:   cfg.FS.Resolve(cfg.Directory),
		upgrader: websocket.Upgrader{
			// Страница открыта на другом порту, поэтому Origin всегда чужой.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]struct{}),
		reloadPort: cfg.ReloadPort,
	}
}

// Config возвращает итоговую конфигурацию.
func (s *Server) Config() Config {
	return s.cfg
}

// Handler возвращает HTTP-обработчик статики.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ClientPath, s.serveClient)
	mux.HandleFunc("/", s.serveFile)

	return Chain(
		Recovery(s.logger),
		Metrics(),
		Logging(s.logger),
	)(mux)
}

// ReloadHandler возвращает обработчик WebSocket-канала.
func (s *Server) ReloadHandler() http.Handler {
	return http.HandlerFunc(s.serveSocket)
}

// Start начинает слушать порты и возвращается сразу после этого.
// Порт 0 означает свободный порт; фактические адреса доступны через
// Addr и ReloadAddr.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.cfg.Reload && s.cfg.Port != 0 && s.cfg.Port == s.cfg.ReloadPort {
		return fmt.Errorf("%w: %d", ErrPortConflict, s.cfg.Port)
	}

	base := func(net.Listener) context.Context { return ctx }

	httpLn, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}

	if s.cfg.Reload {
		wsLn, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.ReloadPort)))
		if err != nil {
			httpLn.Close()
			return fmt.Errorf("listen reload: %w", err)
		}
		s.wsAddr = wsLn.Addr()
		s.reloadPort = wsLn.Addr().(*net.TCPAddr).Port
		s.wsSrv = &http.Server{Handler: s.ReloadHandler(), BaseContext: base}
		go s.serve(s.wsSrv, wsLn, "reload")
	}

	s.httpAddr = httpLn.Addr()
	s.httpSrv = &http.Server{Handler: s.Handler(), BaseContext: base}
	go s.serve(s.httpSrv, httpLn, "http")

	s.started = true
	s.logger.Info("dev server listening",
		"addr", s.httpAddr.String(),
		"dir", s.root,
		"reload", s.cfg.Reload,
	)
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error", "server", name, "error", err)
	}
}

// Addr возвращает адрес HTTP-сервера или пустую строку до Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.httpAddr == nil {
		return ""
	}
	return s.httpAddr.String()
}

// ReloadAddr возвращает адрес reload-канала или пустую строку.
func (s *Server) ReloadAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wsAddr == nil {
		return ""
	}
	return s.wsAddr.String()
}

// Shutdown останавливает оба сервера и закрывает подключения клиентов.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpSrv, wsSrv := s.httpSrv, s.wsSrv
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.started = false
	s.mu.Unlock()

	var errs []error
	if httpSrv != nil {
		errs = append(errs, httpSrv.Shutdown(ctx))
	}
	// Shutdown не закрывает hijacked-соединения.
	for _, c := range clients {
		s.drop(c)
	}
	if wsSrv != nil {
		errs = append(errs, wsSrv.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Reload рассылает сигнал перезагрузки всем подключённым клиентам.
// Клиенты, которым не удалось отправить сообщение, отключаются.
func (s *Server) Reload() {
	if !s.cfg.Reload {
		s.logger.Error("reload requested but live reload is disabled")
		return
	}

	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.send(reloadMessage); err != nil {
			s.logger.Debug("reload client dropped", "error", err)
			s.drop(c)
			continue
		}
		sent++
	}

	telemetry.ReloadBroadcasts.Inc()
	s.logger.Debug("reload broadcast", "clients", sent)
}

// Clients возвращает число подключённых клиентов.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ClientScript возвращает клиентский скрипт с подставленным портом.
func (s *Server) ClientScript() string {
	s.mu.RLock()
	port := s.reloadPort
	s.mu.RUnlock()
	return strings.ReplaceAll(clientScript, portPlaceholder, strconv.Itoa(port))
}

func (s *Server) serveClient(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(s.ClientScript()))
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	// path.Clean от корня не даёт выйти за пределы каталога через "..".
	rel := path.Clean("/" + r.URL.Path)
	file := filepath.Join(s.root, filepath.FromSlash(rel))

	kind, err := s.fs.Exists(file)
	if err != nil {
		s.logger.Error("stat failed", "path", file, "error", err)
	}
	if kind != fsx.KindFile {
		file = filepath.Join(s.root, s.cfg.Fallback)
		kind, _ = s.fs.Exists(file)
	}
	if kind != fsx.KindFile {
		w.Header().Set("Content-Type", defaultType)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("cannot find file: " + r.URL.Path))
		return
	}

	body, err := s.fs.ReadRaw(file)
	if err != nil {
		s.logger.Error("read failed", "path", file, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ext := strings.ToLower(filepath.Ext(file))
	if s.cfg.Reload && (ext == ".html" || ext == ".htm") {
		body = append(body, scriptTag...)
	}

	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		ctype = defaultType
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(body)
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("reload upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	telemetry.ReloadClients.Inc()
	s.logger.Debug("reload client connected", "remote_addr", r.RemoteAddr)

	// Клиент ничего не присылает; чтение нужно, чтобы заметить закрытие.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()

	if ok {
		telemetry.ReloadClients.Dec()
		c.conn.Close()
	}
}
