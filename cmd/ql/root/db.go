package root

import (
	"context"
	"database/sql"

	"questlife/internal/engine"
	qlog "questlife/internal/log"
	"questlife/internal/storage"
)

func openDB(ctx context.Context) (*sql.DB, func(), error) {
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		qlog.CloseError("database", db.Close())
	}
	return db, cleanup, nil
}

func openService(ctx context.Context, opts ...engine.Option) (*engine.Service, func(), error) {
	db, cleanup, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]engine.Option{engine.WithDailyGuard(cfg.DailyGuard)}, opts...)
	svc := engine.NewService(db, opts...)
	if err := svc.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
