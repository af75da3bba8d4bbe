package main

import (
	"github.com/joho/godotenv"

	"github.com/jonandersen/qt/cmd"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cmd.Version = version
	cmd.Execute()
}
