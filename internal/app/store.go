package app

import (
	"context"
	"fmt"

	"onlyfails/internal/config"
	"onlyfails/internal/database"
	"onlyfails/internal/logger"
	"onlyfails/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Store bundles the repositories for one backing database together with the
// pool they share.
type Store struct {
	Users    repositories.UserRepository
	Products repositories.ProductRepository

	driver string
	gormDB *gorm.DB
	mongo  *mongo.Client
	mongoD *mongo.Database
}

// OpenStore opens the pool selected by cfg.Driver and builds the repositories
// on top of it. It is called once per process.
func OpenStore(ctx context.Context, cfg config.Database) (*Store, error) {
	s := &Store{driver: cfg.Driver}

	switch cfg.Driver {
	case config.DriverMemory:
		users := repositories.NewMockUserRepository()
		s.Users = users
		s.Products = repositories.NewMockProductRepository(users)

	case config.DriverMongo:
		client, db, err := database.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.mongo, s.mongoD = client, db
		s.Users = repositories.NewMongoUserRepository(db)
		s.Products = repositories.NewMongoProductRepository(db)

	default:
		db, err := database.Open(cfg)
		if err != nil {
			return nil, err
		}
		s.gormDB = db
		s.Users = repositories.NewGORMUserRepository(db)
		s.Products = repositories.NewGORMProductRepository(db)
	}

	logger.Log.Infow("store opened", "driver", cfg.Driver)
	return s, nil
}

// Migrate creates the tables or indexes the repositories rely on. The
// in-memory store needs none.
func (s *Store) Migrate(ctx context.Context) error {
	switch {
	case s.gormDB != nil:
		return database.Migrate(s.gormDB.WithContext(ctx))
	case s.mongoD != nil:
		return repositories.EnsureMongoIndexes(ctx, s.mongoD)
	default:
		return nil
	}
}

// Close releases the pool.
func (s *Store) Close(ctx context.Context) error {
	switch {
	case s.gormDB != nil:
		if err := database.Close(s.gormDB); err != nil {
			return fmt.Errorf("failed to close %s pool: %w", s.driver, err)
		}
	case s.mongo != nil:
		if err := s.mongo.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect from mongo: %w", err)
		}
	}
	return nil
}
