package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scythe504/trivia-backend/internal"
	"github.com/scythe504/trivia-backend/internal/store"
)

//go:embed schema.sql
var schema string

const defaultTimeout = 3 * time.Second

// Service stores Room, Game and Question documents as JSONB rows.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Store = (*Service)(nil)

func New(ctx context.Context, connStr string, logger *slog.Logger) (*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Service{pool: pool, logger: logger}, nil
}

// InitSchema creates the document tables if they are missing.
func (s *Service) InitSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Health returns the health status and pool statistics.
func (s *Service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.logger.Error("[Health] database ping failed", "error", err)
		return stats
	}

	stat := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = strconv.Itoa(int(stat.TotalConns()))
	stats["idle_connections"] = strconv.Itoa(int(stat.IdleConns()))
	stats["acquired_connections"] = strconv.Itoa(int(stat.AcquiredConns()))
	stats["max_connections"] = strconv.Itoa(int(stat.MaxConns()))

	if stat.AcquiredConns() >= stat.MaxConns() {
		stats["message"] = "The database is experiencing heavy load."
	}
	return stats
}

func (s *Service) Close() {
	s.logger.Info("[Close] disconnecting from database")
	s.pool.Close()
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Service) InsertRoom(ctx context.Context, room *internal.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO rooms (code, doc) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
		room.Code, doc)
	if err != nil {
		return fmt.Errorf("insert room %s: %w", room.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

func (s *Service) GetRoom(ctx context.Context, code string) (*internal.Room, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM rooms WHERE code = $1`, code).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", code, err)
	}
	var room internal.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

func (s *Service) UpsertRoom(ctx context.Context, room *internal.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rooms (code, doc) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		room.Code, doc)
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", room.Code, err)
	}
	return nil
}

func (s *Service) FindRooms(ctx context.Context, filter store.RoomFilter) ([]internal.Room, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("doc->>'status' = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("doc->>'category' = $%d", len(args)))
	}
	if filter.PublicOnly {
		conds = append(conds, "(doc->>'isPublic')::boolean")
	}
	if filter.PlayerCount > 0 {
		args = append(args, filter.PlayerCount)
		conds = append(conds, fmt.Sprintf("jsonb_array_length(doc->'players') = $%d", len(args)))
	}

	query := `SELECT doc FROM rooms`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]internal.Room, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var room internal.Room
		if err := json.Unmarshal(doc, &room); err != nil {
			return nil, fmt.Errorf("decode room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// =============================================================================
// GAMES
// =============================================================================

func (s *Service) GetGame(ctx context.Context, roomCode string) (*internal.Game, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM games WHERE room_code = $1`, roomCode).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", roomCode, err)
	}
	var game internal.Game
	if err := json.Unmarshal(doc, &game); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", roomCode, err)
	}
	return &game, nil
}

func (s *Service) UpsertGame(ctx context.Context, game *internal.Game) error {
	doc, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO games (room_code, doc) VALUES ($1, $2)
		ON CONFLICT (room_code) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		game.RoomCode, doc)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", game.RoomCode, err)
	}
	return nil
}

// =============================================================================
// QUESTIONS
// =============================================================================

func (s *Service) SampleQuestions(ctx context.Context, category string, n int) ([]internal.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc FROM questions
		WHERE $1 = $2 OR category = $1
		ORDER BY random()
		LIMIT $3`, category, internal.QuickMatchCategory, n)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	defer rows.Close()

	questions := make([]internal.Question, 0, n)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var q internal.Question
		if err := json.Unmarshal(doc, &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Service) UpsertQuestions(ctx context.Context, questions []internal.Question) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		doc, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question: %w", err)
		}
		batch.Queue(`
			INSERT INTO questions (id, category, doc) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET category = EXCLUDED.category, doc = EXCLUDED.doc`,
			q.ID, q.Category, doc)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range questions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}
	}
	return nil
}
