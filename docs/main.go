package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/viant/mcpws/router"
	"github.com/viant/mcpws/schema"
	"github.com/viant/mcpws/stdio"
	"github.com/viant/mcpws/tool"
	"go.uber.org/zap"
)

// AddInput is the add tool input.
type AddInput struct {
	A    int     `json:"a"`
	B    int     `json:"b"`
	Note *string `json:"note,omitempty" description:"Optional note"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	registry := tool.New(tool.WithLogger(logger))
	err = tool.Register(registry, "add", "Add two integers", func(ctx context.Context, input *AddInput) (string, error) {
		sum := fmt.Sprintf("%d", input.A+input.B)
		if input.Note != nil {
			sum += " (" + *input.Note + ")"
		}
		return sum, nil
	})
	if err != nil {
		log.Fatal(err)
	}

	// serve tools over stdio: the stdio peer plays the remote side
	ctx := context.Background()
	aRouter := router.New(&router.Config{Name: "calc", Version: "1.0"}, registry, logger)
	endpoint := stdio.New(os.Stdin, os.Stdout, logger)
	aRouter.SetEndpoint(router.Remote, endpoint)
	aRouter.OnReady(ctx, 1)
	err = endpoint.Serve(ctx, func(ctx context.Context, envelope *schema.Envelope) {
		aRouter.Handle(ctx, router.Remote, 1, envelope)
	})
	aRouter.Wait()
	if err != nil {
		log.Fatal(err)
	}
}
