package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Регистрация postgres-драйвера и файлового источника миграций.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"agrosync/internal/app/server/config"
)

// Migrator — подмножество migrate.Migrate, нужное для накатывания схемы.
// Close возвращает две ошибки: источника миграций и базы.
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine — фабрика мигратора. Внедряется, чтобы тесты не
// трогали файловую систему и базу.
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

// Migration накатывает схему серверного хранилища (farmers, sessions,
// entities) при старте процесса, до открытия API.
type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
}

func NewMigration(conf *config.Config, engine MigrationEngine) *Migration {
	return &Migration{
		cfg:    conf,
		engine: engine,
	}
}

// DefaultEngine — реальная реализация поверх golang-migrate.
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up применяет все невыполненные миграции. Отсутствие изменений не
// ошибка: перезапуск сервера над актуальной схемой проходит молча.
func (mg *Migration) Up() error {
	m, err := mg.engine("file://"+mg.cfg.DB.Migrations, mg.cfg.DB.DatabaseURI)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}
	return nil
}
