package echoapi

import (
	"sync"
	"testing"
)

func Test_server_signalShutdownIdempotent(t *testing.T) {
	app := setup(t)
	srv := app.server.(*server)

	// concurrent integrity errors each signal a shutdown; none may panic
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.SignalShutdown()
		}()
	}
	wg.Wait()

	select {
	case <-srv.ShutdownChan():
	default:
		t.Fatal("shutdown channel should be closed")
	}
}
