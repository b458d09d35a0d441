package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/api"
	authproviders "github.com/cbodonnell/matchrelay/pkg/auth/providers"
	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/network"
	"github.com/cbodonnell/matchrelay/pkg/queue"
	"github.com/cbodonnell/matchrelay/pkg/repositories"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/cbodonnell/matchrelay/pkg/rooms"
	"github.com/cbodonnell/matchrelay/pkg/state"
	"github.com/cbodonnell/matchrelay/pkg/version"
	"github.com/cbodonnell/matchrelay/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	allowOrigin := flag.String("allow-origin", "*", "comma-separated list of allowed origins")
	logLevel := flag.String("log-level", "info", "Log level")
	sweepInterval := flag.Duration("sweep-interval", workers.DefaultSweepInterval, "how often expired rooms are removed")
	maxRoomAge := flag.Duration("max-room-age", workers.DefaultMaxRoomAge, "how long after creation a room expires")
	pingInterval := flag.Duration("ping-interval", network.DefaultPingInterval, "keepalive ping interval, 0 to disable")
	sendBuffer := flag.Int("send-buffer", network.DefaultSendBufferSize, "outbound messages buffered per connection")
	historyBuffer := flag.Int("history-buffer", queue.QueueBufferSize, "room events buffered before they are saved")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting relay server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := repositories.Open(ctx, os.Getenv("MATCHRELAY_DATABASE_URL"))
	if err != nil {
		panic(fmt.Sprintf("Failed to open repository: %v", err))
	}
	defer repository.Close(context.Background())

	var authProvider authproviders.AuthProvider
	if firebaseProjectID := os.Getenv("MATCHRELAY_FIREBASE_PROJECT_ID"); firebaseProjectID != "" {
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, firebaseProjectID, os.Getenv("MATCHRELAY_FIREBASE_CREDENTIALS"))
		if err != nil {
			panic(fmt.Sprintf("Failed to create Firebase auth provider: %v", err))
		}
		log.Info("Connection authentication enabled for project %s", firebaseProjectID)
	}

	historyQueue := queue.NewInMemoryQueue[models.RoomEvent](*historyBuffer)
	historyWorker := workers.NewHistoryWorker(workers.NewHistoryWorkerOptions{
		Repository: repository,
		Events:     historyQueue,
	})
	historyCtx, stopHistory := context.WithCancel(context.Background())
	historyDone := make(chan struct{})
	go func() {
		historyWorker.Start(historyCtx)
		close(historyDone)
	}()

	store := state.NewInMemoryRoomStore(nil)
	clientManager := network.NewClientManager(network.NewClientManagerOptions{
		SendBufferSize: *sendBuffer,
	})
	roomManager := rooms.NewManager(rooms.NewManagerOptions{
		Store:    store,
		Notifier: clientManager,
		History:  historyQueue,
	})

	expiryWorker := workers.NewExpiryWorker(workers.NewExpiryWorkerOptions{
		Store:    store,
		History:  historyQueue,
		Interval: *sweepInterval,
		MaxAge:   *maxRoomAge,
	})
	go expiryWorker.Start(ctx)

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager:  clientManager,
		Rooms:          roomManager,
		OriginPatterns: strings.Split(*allowOrigin, ","),
		PingInterval:   *pingInterval,
	})

	apiServerOpts := api.NewAPIServerOptions{
		Port:         *port,
		AllowOrigin:  *allowOrigin,
		Store:        store,
		Connections:  clientManager,
		Repository:   repository,
		WebSocket:    networkManager.Handler(),
		AuthProvider: authProvider,
	}
	tlsCertFile := os.Getenv("MATCHRELAY_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("MATCHRELAY_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}
	server := api.NewAPIServer(apiServerOpts)
	go server.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop server: %v", err)
	}
	networkManager.Shutdown()
	waitForConnections(shutdownCtx, clientManager)

	stopHistory()
	<-historyDone
}

// waitForConnections waits until every connection has cleaned up after itself
// so their final room events reach the history queue.
func waitForConnections(ctx context.Context, clientManager *network.ClientManager) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for clientManager.Count() > 0 {
		select {
		case <-ctx.Done():
			log.Warn("%d connections still open at shutdown", clientManager.Count())
			return
		case <-ticker.C:
		}
	}
}
