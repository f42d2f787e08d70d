package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"user-management/internal/core/config"
	"user-management/internal/core/database"
	"user-management/internal/domain"
)

// Open 按 db.driver 建立存储；返回的 close 负责释放连接
func Open(ctx context.Context, c config.DB, l *zap.Logger) (domain.UserStore, func(context.Context) error, error) {
	switch c.Driver {
	case "", "mongo", "mongodb":
		m, err := database.NewMongo(ctx, database.MongoOpts{
			URI:            c.URI,
			Database:       c.Database,
			ConnectTimeout: time.Duration(c.ConnectTimeoutSec) * time.Second,
			MaxPoolSize:    uint64(max(0, c.MaxOpenConns)),
		})
		if err != nil {
			return nil, nil, err
		}
		l.Info("mongodb connected", zap.String("database", m.Database.Name()))
		return NewMongoUserStore(m.Database), m.Close, nil

	case "mysql", "postgres":
		db, err := database.NewGorm(database.GormOpts{
			Driver:             c.Driver,
			DSN:                c.DSN,
			Username:           c.Username,
			Password:           c.Password,
			MaxOpenConns:       c.MaxOpenConns,
			MaxIdleConns:       c.MaxIdleConns,
			ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
			LogLevel:           c.LogLevel,
		}, l)
		if err != nil {
			return nil, nil, err
		}
		l.Info("database connected", zap.String("driver", c.Driver))
		closeFn := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return NewGormUserStore(db), closeFn, nil

	case "memory":
		l.Warn("using in-memory store, data is lost on exit")
		return NewMemoryUserStore(), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, c.Driver)
}
