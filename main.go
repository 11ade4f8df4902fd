package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"wordpress-hosting-infra/stack"
)

func main() {
	defer jsii.Close()

	cfg, err := stack.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid deployment configuration: %v\n", err)
		os.Exit(1)
	}

	app := awscdk.NewApp(nil)

	stack.NewWordPressStack(app, "WordPressHosting", &stack.WordPressStackProps{
		StackProps: awscdk.StackProps{
			Env: env(),
		},
		Config: cfg,
	})

	app.Synth(nil)
}

// env resolves the target account and region from the standard CDK
// environment variables.
func env() *awscdk.Environment {
	return &awscdk.Environment{
		Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
		Region:  jsii.String(os.Getenv("CDK_DEFAULT_REGION")),
	}
}
