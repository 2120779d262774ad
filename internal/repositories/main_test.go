package repositories

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"vitrina-crm/migrations"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и накатывает
// миграции. Без переменной интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	migrateDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("Не удалось открыть соединение для миграций: %v", err)
	}
	if err := migrations.Run(migrateDB); err != nil {
		log.Fatalf("Не удалось применить миграции: %v", err)
	}
	migrateDB.Close()

	testPool, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
	}
	defer testPool.Close()

	os.Exit(m.Run())
}

func skipIfNoDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}
}

// cleanupTables очищает таблицы для изоляции тестов.
func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE properties, parsed_properties, vitrina_agents RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

// seedListing вставляет объявление и возвращает его vitrina_id.
func seedListing(t *testing.T, rbdID int64, krishaID, class string, krishaDate time.Time) int64 {
	t.Helper()
	var vitrinaID int64
	err := testPool.QueryRow(context.Background(), `
		INSERT INTO parsed_properties (rbd_id, krisha_id, property_class, krisha_date, address)
		VALUES ($1, $2, $3, $4, 'Алматы, тестовый адрес')
		RETURNING vitrina_id`,
		rbdID, krishaID, class, krishaDate,
	).Scan(&vitrinaID)
	require.NoError(t, err)
	return vitrinaID
}

func seedAgent(t *testing.T, phone, name, role string, classes []string) {
	t.Helper()
	if classes == nil {
		classes = []string{}
	}
	_, err := testPool.Exec(context.Background(), `
		INSERT INTO vitrina_agents (agent_phone, agent_name, role, property_classes)
		VALUES ($1, $2, $3, $4)`,
		phone, name, role, classes,
	)
	require.NoError(t, err)
}
