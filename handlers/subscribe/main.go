package main

import (
	"context"
	"fmt"
	"os"

	"newsletter/handlers/subscribe/internal/handler"
	"newsletter/internal/config"
	"newsletter/internal/ident"
	"newsletter/internal/logging"
	"newsletter/internal/subscribers"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.LoadSubscribe()

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	if cfgErr != nil {
		log.Fatal("configuration error", zap.Error(cfgErr))
	}

	awsCfg, err := config.LoadAWS(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	newID, err := ident.ForScheme(cfg.Table.IDScheme)
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	registrar := subscribers.NewRegistrar(dynamodb.NewFromConfig(awsCfg), cfg.Table.Name, newID, log)

	h := handler.New(registrar, log)

	lambda.Start(h.Subscribe)
}
