package repo

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Tx is a unit of work bound to one database transaction. Every method runs on
// the transaction handle; nothing it does is visible to other callers before commit.
type Tx struct {
	db *gorm.DB
}

// InTx runs fn inside a transaction. A returned error or a panic rolls back
// everything fn wrote.
func (r *GormRepo) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		return fn(&Tx{db: g})
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
