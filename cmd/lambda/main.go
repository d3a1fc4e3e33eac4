package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jrsteele09/studio-auth-gateway/gateway"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/jrsteele09/studio-auth-gateway/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logging.Init(c.LogLevel, c.LogFormat, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logging")
	}

	ctx := context.Background()
	awsCfg, err := gateway.LoadAWSConfig(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	handler, _, err := gateway.NewFromConfig(ctx, c, awsCfg)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	lambda.Start(handler.Handle)
}
