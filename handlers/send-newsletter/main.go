package main

import (
	"context"
	"fmt"
	"os"

	"newsletter/handlers/send-newsletter/internal/handler"
	"newsletter/internal/config"
	"newsletter/internal/logging"
	"newsletter/internal/mailer"
	"newsletter/internal/subscribers"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.LoadSend()

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	if cfgErr != nil {
		log.Fatal("configuration error", zap.Error(cfgErr))
	}

	ctx := context.Background()
	awsCfg, err := config.LoadAWS(ctx, cfg.AWS)
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	var ssmClient config.SSMGetParameterAPI
	if cfg.Email.TemplateSSMParam != "" {
		ssmClient = ssm.NewFromConfig(awsCfg)
	}
	tmpl, err := config.LoadTemplate(ctx, cfg.Email, ssmClient)
	if err != nil {
		log.Fatal("could not load email template", zap.Error(err))
	}

	scanner := subscribers.NewScanner(subscribers.ScannerConfig{
		ScanClient:       dynamodb.NewFromConfig(awsCfg),
		NewScanPaginator: subscribers.NewScanPaginator,
		TableName:        cfg.Table.Name,
		MaxPages:         cfg.Table.MaxPages,
		PageSize:         int32(cfg.Table.PageSize),
		Logger:           log,
	})

	dispatcher := mailer.New(mailer.Config{
		SendEmailAPI:            sesv2.NewFromConfig(awsCfg),
		FromEmailAddress:        cfg.Email.FromEmailAddress,
		ConfigurationSet:        cfg.Email.ConfigurationSet,
		ReplyToAddresses:        cfg.Email.ReplyToAddresses,
		MaxRecipientsPerMessage: cfg.Email.MaxRecipientsPerMessage,
		Template:                tmpl,
		Logger:                  log,
	})

	log.Info("starting send-newsletter",
		zap.String("region", awsCfg.Region), zap.String("table", cfg.Table.Name))

	h := handler.New(scanner, dispatcher, log)
	lambda.Start(h.SendNewsletter)
}
