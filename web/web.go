// Package web provides the storefront web server: routing, the access gates,
// templates, the real-time channel and background job scheduling.
package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/offerly/storefront/config"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/util/common"
	"github.com/offerly/storefront/web/controller"
	"github.com/offerly/storefront/web/gate"
	"github.com/offerly/storefront/web/job"
	"github.com/offerly/storefront/web/locale"
	"github.com/offerly/storefront/web/middleware"
	"github.com/offerly/storefront/web/network"
	"github.com/offerly/storefront/web/service"
	"github.com/offerly/storefront/web/websocket"
	"github.com/robfig/cron/v3"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

// Embedded files carry no modification time; the process start stands in so
// browsers can revalidate.
type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server represents the storefront web server with its controllers, the
// notification hub and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	table   *gate.Table
	hub     *websocket.Hub
	account controller.AccountAPI

	index *controller.IndexController
	page  *controller.PageController
	shell *controller.ShellController
	ws    *controller.WebSocketController
	api   *controller.APIController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		table:   gate.NewTable(),
		hub:     websocket.NewHub(),
		account: service.NewAccountService(config.GetAPIURL()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// getHtmlFiles walks the local `web/html` directory and returns a list of
// template file paths. Used only in debug/development mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	err := fs.WalkDir(os.DirFS("."), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded HTML templates.
func (s *Server) getHtmlTemplate() (*template.Template, error) {
	return template.New("").ParseFS(htmlFS, "html/*.html")
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	if err := s.mount(engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// mount installs templates, assets and every route on engine.
func (s *Server) mount(engine *gin.Engine) error {
	if err := locale.InitLocalizer(i18nFS); err != nil {
		return err
	}

	// The websocket and JSON API are left uncompressed.
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/ws", "/api/"}),
	))
	engine.Use(locale.LocalizerMiddleware())
	if origins := config.GetCORSOrigins(); len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate()
		if err != nil {
			return err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	edge := middleware.EdgeGate(s.table)
	pages := engine.Group("/", edge)
	forms := engine.Group("/", middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig(config.GetLoginAttempts())))
	root := engine.Group("/")

	s.index = controller.NewIndexController(pages, forms, s.table, s.account)
	s.shell = controller.NewShellController(root, s.table)
	s.ws = controller.NewWebSocketController(root, s.hub)
	s.api = controller.NewAPIController(root, s.hub)

	// Every other path is a page of the client-routed shell.
	s.page = controller.NewPageController(s.table, s.account)
	engine.NoRoute(edge, middleware.AdminShellGate(s.table), s.page.Render)
	return nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	spec := config.GetHeartbeatSpec()
	if _, err := s.cron.AddJob(spec, job.NewHeartbeatJob(s.hub)); err != nil {
		logger.Warningf("invalid heartbeat schedule %q: %v", spec, err)
	}
	if path := logger.LogPath(); path != "" {
		s.cron.AddJob("@daily", job.NewClearLogsJob(path))
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewAutoHttpsListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}

	go s.hub.Run()
	go func() {
		defer common.Recover("http server")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server, the hub and the cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.hub.Stop()

	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			err2 = err
		}
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }

// Table returns the route table the gates classify against.
func (s *Server) Table() *gate.Table { return s.table }
