package main

import (
	"context"
	"log"
	"os"

	"github.com/cdsvote/cdsvote/internal/adminctl"
)

func main() {

	ctx := context.Background()

	cfg, args, err := adminctl.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := adminctl.NewApp(cfg)
	if err := app.Run(ctx, args); err != nil {
		log.Fatalf("%v", err)
	}
}
