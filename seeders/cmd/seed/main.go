package main

import (
	"context"
	"flag"
	"log"

	"vitrina-crm/pkg/config"
	"vitrina-crm/pkg/database/postgresql"
	"vitrina-crm/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runAgents := flag.Bool("agents", false, "Импортировать агентов из CSV (путь в AGENTS_FILE)")
	agentsFile := flag.String("agents-file", "", "Переопределить путь к CSV с агентами")
	flag.Parse()

	if !*runAgents {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Пример: go run ./seeders/cmd/seed -agents")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)

	dbPool, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Подключение к БД не удалось: %v", err)
	}
	defer dbPool.Close()

	path := cfg.Bot.AgentsFile
	if *agentsFile != "" {
		path = *agentsFile
	}
	seeders.SeedAgents(dbPool, path)
	log.Println("======================================================")
}
