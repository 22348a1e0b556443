package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/lib/pq"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

//go:embed schema.sql
var schema string

// maxAttempts limita as re-execuções por falha de serialização/deadlock
const maxAttempts = 3

// Postgres implementa ledger.Store sobre database/sql + lib/pq
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ApplySchema cria as tabelas se não existirem (idempotente)
func (p *Postgres) ApplySchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

// WithTx executa fn numa transação SERIALIZABLE; a unidade inteira é
// repetida quando o Postgres aborta por serialização (40001) ou deadlock (40P01)
func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = p.runTx(ctx, fn); !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (p *Postgres) runTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// notFound traduz sql.ErrNoRows para o erro de domínio
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.NotFound(what)
	}
	return err
}
