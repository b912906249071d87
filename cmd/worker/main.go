package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/config"
	"github.com/plateboard/plateboard/internal/logging"
)

func main() {
	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	clients, err := aws.NewClients(context.Background())
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	p := NewProcessor(cfg, clients, log)

	// RUN_LOCAL processes one simulated event and exits, for development
	// without a queue.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"type":"order.created","tenant_id":"local-tenant","order_ids":["local-order-1"]}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{{Body: body}},
		}
		if err := p.Handle(context.Background(), ev); err != nil {
			log.WithError(err).Fatal("local handler error")
		}
		return
	}

	lambda.Start(p.Handle)
}
