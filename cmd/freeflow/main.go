package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/freeflowlabs/freeflow"
	"github.com/freeflowlabs/freeflow/internal/platform/logger"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

func main() {
	provider := flag.String("provider", "groq", "provider to call (groq, gemini)")
	model := flag.String("model", "", "model override; empty uses the provider default")
	system := flag.String("system", "", "optional system prompt")
	stream := flag.Bool("stream", false, "stream the reply chunk by chunk")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: freeflow [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	prompt := strings.Join(flag.Args(), " ")

	logger.Initialize(logger.DefaultConfig())
	log := logger.Get()
	defer logger.Sync()

	client, err := freeflow.New(freeflow.WithLogger(log))
	if err != nil {
		log.Fatal("client init failed", zap.Error(err))
	}

	if !client.Available(*provider) {
		log.Fatal("provider not configured",
			zap.String("provider", *provider),
			zap.Strings("known", client.Providers()),
		)
	}

	var messages []api.ChatMessage
	if *system != "" {
		messages = append(messages, api.ChatMessage{Role: string(api.System), Content: *system})
	}
	messages = append(messages, api.ChatMessage{Role: string(api.User), Content: prompt})

	req := &api.ChatRequest{Messages: messages, Model: *model}
	ctx := context.Background()

	if *stream {
		ch, err := client.ChatStream(ctx, *provider, req)
		if err != nil {
			log.Fatal("stream failed", zap.Error(err))
		}
		for res := range ch {
			if res.Err != nil {
				fmt.Fprintln(os.Stderr)
				log.Fatal("stream failed", zap.Error(res.Err))
			}
			fmt.Print(res.Response.Content())
		}
		fmt.Println()
		return
	}

	resp, err := client.Chat(ctx, *provider, req)
	if err != nil {
		log.Fatal("chat failed", zap.Error(err))
	}
	fmt.Println(resp.Content())
}
