package router

import (
	"github.com/sharecycle/accounts/internal/application"
	"github.com/sharecycle/accounts/internal/container"
	"github.com/sharecycle/accounts/internal/infrastructure/cache"
	"github.com/sharecycle/accounts/internal/infrastructure/gcs"
	pginfra "github.com/sharecycle/accounts/internal/infrastructure/postgres"
	"github.com/sharecycle/accounts/internal/infrastructure/search"
	handlers "github.com/sharecycle/accounts/internal/interface/http"
	"github.com/sharecycle/accounts/internal/router/modules"
	"github.com/sharecycle/accounts/pkg/mailer"
)

// InitModules builds the service graph from the container singletons
// and registers every route module. Called once at startup, after the
// container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	store := pginfra.NewStore(pool)
	events := pginfra.NewEmailEventRepository(pool)
	ignoreList := cache.NewIgnoreList(events, container.GetRedis(), cfg.IgnoreListCacheTTL, logger)

	photos := gcs.NewPhotoStore(container.GetGCS(), cfg.GCSBucket)
	indexer := search.NewIndexer(container.GetES(), cfg.ESAccountsIndex, logger)
	// GetRabbitPub returns a typed nil when the broker is unconfigured;
	// assigning that into the interface directly would defeat the
	// outbox's nil check.
	var pub mailer.Publisher
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}
	outbox := mailer.NewQueueOutbox(pub, cfg.MailSendEnabled, logger)

	svc := application.NewService(
		store,
		ignoreList,
		photos,
		indexer,
		outbox,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		cfg,
	)

	authHandler := handlers.NewAuthHandler(svc, logger, cfg)
	accountHandler := handlers.NewAccountHandler(svc, indexer, logger)
	webhookHandler := handlers.NewWebhookHandler(events, ignoreList, container.GetMailgun(), logger)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewAccountModule(accountHandler, container.GetJWT()))
	r.Add(modules.NewWebhookModule(webhookHandler))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
