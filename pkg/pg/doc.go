// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations for users and otp_devices, and Healthcheck adapts the pool
// to the readiness probe. The Is*Error helpers classify pgx errors so stores
// can map them onto their own sentinels.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
package pg
