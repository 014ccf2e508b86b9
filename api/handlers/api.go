package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/api"
	"github.com/busanbank/live-support-api/api/scheduler"
	"github.com/busanbank/live-support-api/config"
	"github.com/busanbank/live-support-api/coordination"
	"github.com/busanbank/live-support-api/databases"
	"github.com/busanbank/live-support-api/media"
	"github.com/busanbank/live-support-api/models"
)

// App stores the router and both store connections, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
	redis    *redis.Client

	store    coordination.SessionStore
	queue    coordination.WaitingQueue
	pool     coordination.ConsultantPool
	watch    coordination.AssignedWatch
	jobLock  coordination.JobLock
	cache    coordination.TokenCache
	relay    *coordination.MessageRelay
	registry *AgentRegistry

	scheduler   *scheduler.Scheduler
	relayCancel context.CancelFunc
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	messageDB := databases.NewChatMessageDatabase(a.dbHelper)
	archiveDB := databases.NewSessionArchiveDatabase(a.dbHelper)

	s := Session{
		Store:   a.store,
		Queue:   a.queue,
		Pool:    a.pool,
		Watch:   a.watch,
		Archive: archiveDB,
		Tokens:  a.cache,
		LockTTL: a.Config.ConsultantLockTTL,
	}
	c := Consultant{Pool: a.pool}
	m := Message{Relay: a.relay, DB: messageDB, Store: a.store}
	t := Token{
		Provider: media.NewHTTPTokenServer(a.Config.TokenServerURL),
		Cache:    a.cache,
		Store:    a.store,
		AppID:    a.Config.MediaAppID,
	}
	ws := AgentSocket{Registry: a.registry, Pool: a.pool}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	secured := func(h http.HandlerFunc) http.Handler {
		return api.Middleware(a.Config.JWTSecret, h)
	}

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/sessions", secured(s.CreateSessionHandler)).Methods("POST")
	apiCreate.Handle("/sessions/waiting", secured(s.WaitingSessionsHandler)).Methods("GET")
	apiCreate.Handle("/sessions/{session_id}", secured(s.SessionByIDHandler)).Methods("GET")
	apiCreate.Handle("/sessions/{session_id}/enqueue", secured(s.EnqueueSessionHandler)).Methods("POST")
	apiCreate.Handle("/sessions/{session_id}/accept", secured(s.AcceptSessionHandler)).Methods("POST")
	apiCreate.Handle("/sessions/{session_id}/agent-joined", secured(s.AgentJoinedHandler)).Methods("POST")
	apiCreate.Handle("/sessions/{session_id}/end", secured(s.EndSessionHandler)).Methods("POST")

	apiCreate.Handle("/sessions/{session_id}/messages", secured(m.CreateMessageHandler)).Methods("POST")
	apiCreate.Handle("/sessions/{session_id}/messages", secured(m.MessagesBySessionHandler)).Methods("GET")
	apiCreate.Handle("/sessions/{session_id}/messages/read", secured(m.MarkReadHandler)).Methods("PUT")

	apiCreate.Handle("/sessions/{session_id}/token", secured(t.MediaTokenHandler)).Methods("GET")

	apiCreate.Handle("/consultants/ready", secured(c.ReadyConsultantsHandler)).Methods("GET")
	apiCreate.Handle("/consultants/{consultant_id}", secured(c.ConsultantByIDHandler)).Methods("GET")
	apiCreate.Handle("/consultants/{consultant_id}/ready", secured(c.ReadyHandler)).Methods("POST")
	apiCreate.Handle("/consultants/{consultant_id}/offline", secured(c.OfflineHandler)).Methods("POST")

	// browser websocket clients can not set an Authorization header, so the
	// upgrade endpoint sits outside the bearer middleware
	r.HandleFunc("/ws/agent", ws.AgentSocketHandler)

	return r
}

// Initialize is invoked by main to connect both stores, start the background
// workers and create a router
func (a *App) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := databases.NewClient(&a.Config)
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("live-support-api has connected to the database")

	rdb, err := coordination.NewClient(ctx, &a.Config)
	if err != nil {
		// coordination is the heart of the engine, kill the pod without it
		zap.S().With(err).Error("failed to connect to redis")
		return err
	}
	a.redis = rdb
	zap.S().Info("live-support-api has connected to redis")

	keys := coordination.NewKeys()
	a.store = coordination.NewSessionStore(rdb, keys)
	a.queue = coordination.NewWaitingQueue(rdb, keys)
	a.pool = coordination.NewConsultantPool(rdb, keys)
	a.watch = coordination.NewAssignedWatch(rdb, keys)
	a.jobLock = coordination.NewJobLock(rdb, keys)
	a.cache = coordination.NewTokenCache(rdb, keys)
	a.registry = NewAgentRegistry()

	messageDB := databases.NewChatMessageDatabase(a.dbHelper)
	a.relay = coordination.NewMessageRelay(rdb, keys, messageDB)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	a.relayCancel = relayCancel
	go a.relay.Run(relayCtx)

	a.scheduler = scheduler.NewScheduler(a.Config, scheduler.Deps{
		Store:    a.store,
		Queue:    a.queue,
		Pool:     a.pool,
		Watch:    a.watch,
		Lock:     a.jobLock,
		Notifier: a.registry,
		Archive:  databases.NewSessionArchiveDatabase(a.dbHelper),
		Messages: messageDB,
	})
	a.scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Shutdown stops the background workers; the http server is torn down by main
func (a *App) Shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.relayCancel != nil {
		a.relayCancel()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
