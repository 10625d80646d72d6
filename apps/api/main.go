package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/GraduateProjectPTIT/lms-backend/apps/api/echo"
	"github.com/GraduateProjectPTIT/lms-backend/core"
	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/media"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
	emailsvc "github.com/GraduateProjectPTIT/lms-backend/services/email"
	logsvc "github.com/GraduateProjectPTIT/lms-backend/services/logger"
	tryonsvc "github.com/GraduateProjectPTIT/lms-backend/services/tryon"
	"github.com/GraduateProjectPTIT/lms-backend/storage/database"
	sqlxrepos "github.com/GraduateProjectPTIT/lms-backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()
	sqlxDB := sqlx.NewDb(db, core.Conf.Database.Engine)

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sqlxDB), mailSvc)
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository(sqlxDB))
	ordSvc := order.NewService(sqlxrepos.NewOrderRepository(sqlxDB), crsSvc)
	uploadMgr := media.NewManager(
		core.Conf.Upload.Dir,
		core.Conf.Upload.ChunkSize,
		core.Conf.Upload.ProbeTimeout,
		logger,
	)
	tryOnSvc := tryonsvc.NewService(logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:   core.Conf.Server.Addr,
			Logger:    logger,
			UserSvc:   usrSvc,
			CourseSvc: crsSvc,
			OrderSvc:  ordSvc,
			UploadMgr: uploadMgr,
			TryOnSvc:  tryOnSvc,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", core.Conf.Server.Addr))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stopServer(server, logger)

	case <-server.ShutdownChan():
		logger.Info("integrity issue detected: Start shutdown...")
		stopServer(server, logger)
	}
}

// stopServer gives outstanding requests a deadline for completion.
func stopServer(server echoapi.Server, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (*sql.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
