package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/plateboard/plateboard/internal/aws"
	"github.com/plateboard/plateboard/internal/config"
	"github.com/plateboard/plateboard/internal/handlers"
	"github.com/plateboard/plateboard/internal/live"
	"github.com/plateboard/plateboard/internal/logging"
	"github.com/plateboard/plateboard/internal/orders"
)

func setupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.Register(r)

	return r
}

func main() {
	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	ctx := context.Background()
	clients, err := aws.NewClients(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to init aws clients")
	}

	// With a stream configured, board reads come from an in-memory view
	// kept fresh by the change subscriber; without one they fall back to
	// direct queries.
	var (
		view        *live.OrderView
		viewHealthy func() bool
	)
	if cfg.OrdersStreamARN != "" {
		view = live.NewOrderView()

		seedStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
		if seed, err := seedStore.ListActiveAll(ctx); err != nil {
			log.WithError(err).Warn("seed from store failed; view starts empty")
		} else {
			view.Seed(seed)
		}

		sub := live.NewSubscriber(clients.Streams, cfg.OrdersStreamARN, log)
		sub.Register(view.Apply)
		viewHealthy = sub.Healthy
		go func() {
			if err := sub.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("stream subscriber stopped")
			}
		}()
	}

	r := setupRouter(handlers.New(cfg, clients, log, view, viewHealthy))

	if cfg.RunLocal {
		log.WithField("address", cfg.Address).Info("running local server")
		if err := r.Run(cfg.Address); err != nil {
			log.WithError(err).Fatal("failed to run local server")
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
