package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Generation kinds.
const (
	KindArticle    = "article"
	KindQuestions  = "questions"
	KindEvaluation = "evaluation"
)

// Generation is one successful model answer reshaped into the response contract.
type Generation struct {
	ID        int64
	CreatedAt time.Time
	ChatID    int64 // 0 for HTTP callers
	Kind      string
	Engine    string
	Model     string
	InputHash string
	Result    json.RawMessage
}

type GenerationRepo struct{ DB *sql.DB }

func NewGenerationRepo(db *sql.DB) *GenerationRepo { return &GenerationRepo{DB: db} }

// Open connects via the pgx database/sql driver and pings once.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

const schema = `
create table if not exists generations (
  id          bigserial primary key,
  created_at  timestamptz not null default now(),
  chat_id     bigint,
  kind        text not null,
  engine      text not null,
  model       text not null,
  input_hash  text not null,
  result_json jsonb not null
);
create index if not exists generations_chat_created_idx on generations (chat_id, created_at desc);
create index if not exists generations_created_idx on generations (created_at)`

func (r *GenerationRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Save пишет одну генерацию; повтор с тем же input_hash создаёт новую строку.
func (r *GenerationRepo) Save(ctx context.Context, g Generation) error {
	if g.Kind == "" || len(g.Result) == 0 {
		return errors.New("generation kind and result are required")
	}
	const q = `
insert into generations (chat_id, kind, engine, model, input_hash, result_json)
values ($1,$2,$3,$4,$5,$6)`
	_, err := r.DB.ExecContext(ctx, q, nullChat(g.ChatID), g.Kind, g.Engine, g.Model, g.InputHash, []byte(g.Result))
	return err
}

// Recent возвращает последние генерации чата, новые сверху.
func (r *GenerationRepo) Recent(ctx context.Context, chatID int64, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
select id, created_at, coalesce(chat_id,0), kind, engine, model, input_hash, result_json
from generations
where chat_id = $1
order by created_at desc, id desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var (
			g  Generation
			js []byte
		)
		if err := rows.Scan(&g.ID, &g.CreatedAt, &g.ChatID, &g.Kind, &g.Engine, &g.Model, &g.InputHash, &js); err != nil {
			return nil, err
		}
		g.Result = js
		out = append(out, g)
	}
	return out, rows.Err()
}

// PurgeOlderThan удаляет старые записи, чтобы не раздувать БД.
func (r *GenerationRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from generations where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

func (r *GenerationRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func nullChat(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
