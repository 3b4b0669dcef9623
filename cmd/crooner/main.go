package main

import (
	"log"

	"github.com/mpwalden/crooner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
