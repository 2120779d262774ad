package seeders

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"vitrina-crm/internal/repositories"
	"vitrina-crm/internal/services"
)

// SeedAgents наполняет vitrina_agents из CSV-файла. Повторный запуск
// безопасен: импорт делает upsert по телефону и не трогает chat_ids.
func SeedAgents(db *pgxpool.Pool, csvPath string) {
	log.Printf("  - Импорт агентов из %s...", csvPath)

	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("    - ❌ Файл агентов не открылся: %v", err)
		return
	}
	defer file.Close()

	logger := zap.NewNop()
	agentService := services.NewAgentService(repositories.NewAgentRepository(db, logger), logger)

	imported, err := agentService.ImportFromCSV(context.Background(), file)
	if err != nil {
		log.Printf("    - ❌ Импорт прерван: %v", err)
		return
	}
	log.Println(fmt.Sprintf("    - ✅ Импортировано агентов: %d", imported))
}
