package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnavailable возвращается всеми операциями, пока соединение с БД
// не установлено. Для вызывающего это ожидаемый, повторяемый отказ,
// а не фатальная ошибка программы.
var ErrUnavailable = errors.New("база данных недоступна")

// Таймаут на один запрос. Он же ограничивает ожидание свободного
// соединения в пуле: очередь дольше таймаута превращается в ErrUnavailable.
const queryTimeout = 5 * time.Second

type DB struct {
	conn         *sql.DB
	available    atomic.Bool
	reconnecting atomic.Bool

	retryInterval time.Duration
	retryAttempts int

	ctx    context.Context
	cancel context.CancelFunc
}

// New открывает пул соединений с Postgres и применяет миграции.
// При недоступной базе возвращает объект с available=false и фоновым
// переподключением — бот тем временем продолжает принимать события.
func New(databaseURL string, retryInterval time.Duration, retryAttempts int) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	db := &DB{
		conn:          conn,
		retryInterval: retryInterval,
		retryAttempts: retryAttempts,
		ctx:           ctx,
		cancel:        cancel,
	}
	if err := db.connect(); err != nil {
		log.Printf("БД недоступна при старте: %v", err)
		db.armReconnect()
	}
	return db, nil
}

// connect проверяет соединение, применяет миграции и поднимает флаг
func (db *DB) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if err := db.applyMigrations(); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}
	db.available.Store(true)
	log.Println("База данных подключена, миграции применены")
	return nil
}

// applyMigrations выполняет встроенные SQL-скрипты в порядке имён файлов
func (db *DB) applyMigrations() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := db.conn.Exec(string(script)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Available сообщает, готова ли база принимать запросы
func (db *DB) Available() bool {
	return db.available.Load()
}

// armReconnect взводит фоновое переподключение, если оно ещё не идёт.
// Нулевой интервал выключает переподключение (используется в тестах).
func (db *DB) armReconnect() {
	if db.retryInterval <= 0 {
		return
	}
	if !db.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go db.reconnect()
}

// reconnect — фоновая задача переподключения: фиксированный интервал,
// ограниченное число попыток. Доступность передаётся через атомарный
// флаг, ошибки не пересекают границу задачи.
func (db *DB) reconnect() {
	defer db.reconnecting.Store(false)

	for i := 1; i <= db.retryAttempts; i++ {
		select {
		case <-db.ctx.Done():
			return
		case <-time.After(db.retryInterval):
		}
		if db.Available() {
			return
		}
		if err := db.connect(); err != nil {
			log.Printf("Переподключение к БД (попытка %d/%d): %v", i, db.retryAttempts, err)
			continue
		}
		return
	}
	log.Printf("Переподключение к БД остановлено после %d попыток", db.retryAttempts)
}

// markDown опускает флаг доступности после ошибки соединения и взводит
// переподключение. Один просроченный запрос не приговаривает хранилище
// навсегда: флаг поднимется обратно при первом удачном пинге.
func (db *DB) markDown(err error) {
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, sql.ErrConnDone) {
		return
	}
	if db.available.CompareAndSwap(true, false) {
		db.armReconnect()
	}
}

func (db *DB) Close() error {
	db.cancel()
	return db.conn.Close()
}
