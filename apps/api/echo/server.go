package echoapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/media"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger    core.Logger
		UserSvc   *user.Service
		CourseSvc *course.Service
		OrderSvc  *order.Service
		UploadMgr *media.Manager
		TryOnSvc  core.TryOnService
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		ShutdownChan() <-chan struct{}
	}

	server struct {
		opts         *Options
		app          *echo.Echo
		shutdownCh   chan struct{}
		shutdownOnce sync.Once
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:       opts,
		app:        echo.New(),
		shutdownCh: make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(api, jwt, s.opts.UserSvc)
	registerCourseAPI(api, jwt, s.opts.CourseSvc)
	registerOrderAPI(api, jwt, s.opts.OrderSvc, s.opts.CourseSvc)
	registerUploadAPI(api, jwt, s.opts.UploadMgr)
	registerTryOnAPI(api, jwt, s.opts.TryOnSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// SignalShutdown requests a graceful stop; the main goroutine watches
// ShutdownChan. Concurrent requests can each surface an integrity error, so
// the channel close must be idempotent.
func (s *server) SignalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

func (s *server) ShutdownChan() <-chan struct{} { return s.shutdownCh }

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the LMS API!")
}
