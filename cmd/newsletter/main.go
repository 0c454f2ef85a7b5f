package main

import (
	"log"

	tool "github.com/photoshare/photoshare-api/internal/tools/newsletter"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
