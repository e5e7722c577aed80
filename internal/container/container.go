// Package container holds the shared clients built once at startup.
// Router modules wire themselves from these accessors instead of
// threading a dozen constructor arguments through every layer.
package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/config"
	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/mailer"
)

// Deps is everything main constructs before the router comes up.
type Deps struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	PGPool *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client

	JWT       *helpers.JWTManager
	Mailgun   *mailer.Mailgun
	RabbitPub *helpers.RabbitPublisher
}

var deps Deps

// Populate installs the startup dependencies. Call once, before
// router.InitModules.
func Populate(d Deps) { deps = d }

func GetConfig() *config.Config              { return deps.Cfg }
func GetLogger() *logrus.Logger              { return deps.Logger }
func GetPGPool() *pgxpool.Pool               { return deps.PGPool }
func GetRedis() *redis.Client                { return deps.Redis }
func GetGCS() *storage.Client                { return deps.GCS }
func GetES() *elasticsearch.Client           { return deps.ES }
func GetMailgun() *mailer.Mailgun            { return deps.Mailgun }
func GetRabbitPub() *helpers.RabbitPublisher { return deps.RabbitPub }

func GetJWT() *helpers.JWTManager {
	if deps.JWT != nil {
		return deps.JWT
	}
	return helpers.DefaultJWT()
}
