// Утилита для ADMIN_PASSWORD_HASH: печатает bcrypt-хэш пароля.
//
//	go run ./cmd/hashpw 'мой-пароль'
package main

import (
	"fmt"
	"log"
	"os"

	"vitrina-crm/pkg/utils"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("использование: hashpw <пароль>")
	}

	hashed, err := utils.HashPassword(os.Args[1])
	if err != nil {
		log.Fatalf("Ошибка при генерации хеша: %v", err)
	}
	fmt.Println(hashed)
}
