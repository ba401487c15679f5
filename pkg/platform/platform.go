// Package platform assembles the mobile core: storage, transport, session
// manager, chat store, and navigation store, constructed explicitly and
// passed by handle. There are no package-level singletons; a host embeds
// exactly one Platform per user session.
package platform

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Database drivers, selected by Storage.Driver.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/flaitravel/mobile-core/pkg/api"
	"github.com/flaitravel/mobile-core/pkg/auth"
	"github.com/flaitravel/mobile-core/pkg/chat"
	"github.com/flaitravel/mobile-core/pkg/navigation"
	"github.com/flaitravel/mobile-core/pkg/storage"
	"github.com/flaitravel/mobile-core/pkg/storage/sqlstore"
)

// Platform is the assembled mobile core.
type Platform struct {
	Client     *api.Client
	Auth       *auth.Manager
	Chat       *chat.Store
	Navigation *navigation.Store

	secure storage.SecureStore
	plain  storage.Store
	db     *sql.DB
}

// New builds a platform from the configuration. The platform is inert until
// Initialize is called.
func New(ctx context.Context, cfg *Config) (*Platform, error) {
	p := &Platform{}

	if err := p.openStorage(ctx, cfg.Storage); err != nil {
		return nil, err
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Secure:  p.secure,
		Plain:   p.plain,
		OnSessionExpired: func() {
			// p.Auth is assigned below, before any request can run.
			p.Auth.SessionExpired()
		},
	})
	if err != nil {
		p.closeStorage()
		return nil, err
	}

	p.Client = client
	p.Auth = auth.NewManager(client, p.secure, p.plain)
	p.Chat = chat.NewStore(client, p.plain, func(context.Context) string {
		return p.Auth.Session().UserID
	})
	p.Navigation = navigation.NewStore(p.plain)

	return p, nil
}

// openStorage wires the secure and plain tiers for the configured driver.
// SQL drivers keep the plain tier in the database and the secure tier in
// files under Path, where a host can point at protected app storage.
func (p *Platform) openStorage(ctx context.Context, cfg StorageConfig) error {
	switch cfg.Driver {
	case DriverMemory:
		mem := storage.NewMemory()
		p.secure, p.plain = mem, mem
		return nil

	case DriverFile:
		fs, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return fmt.Errorf("opening file storage: %w", err)
		}
		p.secure, p.plain = fs, fs
		return nil

	case DriverSQLite, DriverPostgres:
		fs, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return fmt.Errorf("opening secure storage: %w", err)
		}

		driver, dialect := "sqlite", sqlstore.DialectSQLite
		if cfg.Driver == DriverPostgres {
			driver, dialect = "postgres", sqlstore.DialectPostgres
		}

		db, err := sql.Open(driver, cfg.DSN)
		if err != nil {
			return fmt.Errorf("opening %s database: %w", cfg.Driver, err)
		}
		store, err := sqlstore.New(ctx, db, dialect)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("preparing %s storage: %w", cfg.Driver, err)
		}

		p.secure, p.plain, p.db = fs, store, db
		return nil

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Initialize restores persisted state: session, chat log, navigation flags.
// It never fails; a damaged store yields a clean-slate platform.
func (p *Platform) Initialize(ctx context.Context) {
	session := p.Auth.Initialize(ctx)
	p.Chat.Rehydrate(ctx)
	p.Navigation.Initialize(ctx)

	slog.Debug("platform: initialized", "authenticated", session.Authenticated())
}

// Close releases storage resources. The platform must not be used after
// Close.
func (p *Platform) Close() error {
	return p.closeStorage()
}

func (p *Platform) closeStorage() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
