// discussd-lambda serves the post-creation endpoint behind an AWS Lambda
// function URL instead of a long-running HTTP server.
package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/bluniversal/comments/internal/discussd/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	lambda.Start(httpadapter.NewV2(application.Handler()).ProxyWithContext)
}
