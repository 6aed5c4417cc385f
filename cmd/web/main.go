package main

import (
	"log"

	"github.com/joho/godotenv"

	"codementor/internal/server"
)

func main() {
	// A missing .env is fine; deployments set real environment variables.
	_ = godotenv.Load()

	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
