// Command dbbootstrap is the Lambda that prepares the WordPress database on
// a freshly provisioned Aurora cluster. It runs statements through the RDS
// Data API, so it needs no VPC attachment or wire driver.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/aws/aws-sdk-go/service/rdsdataservice/rdsdataserviceiface"
)

// Event selects what the invocation should do. The ops CLI sends an empty
// event, which means "ensure the database exists".
type Event struct {
	// Ping skips database work and reports reachability only.
	Ping bool `json:"ping,omitempty"`
}

// Result reports what the handler did.
type Result struct {
	Database string `json:"database"`
	Created  bool   `json:"created"`
	Message  string `json:"message"`
}

// Handler ensures the WordPress schema exists.
type Handler struct {
	data       rdsdataserviceiface.RDSDataServiceAPI
	clusterARN string
	secretARN  string
	database   string
}

// NewHandler reads the cluster wiring from the environment the stack sets on
// the function.
func NewHandler(data rdsdataserviceiface.RDSDataServiceAPI) (*Handler, error) {
	h := &Handler{
		data:       data,
		clusterARN: os.Getenv("DB_CLUSTER_ARN"),
		secretARN:  os.Getenv("DB_SECRET_ARN"),
		database:   os.Getenv("DB_NAME"),
	}
	if h.clusterARN == "" || h.secretARN == "" || h.database == "" {
		return nil, fmt.Errorf("DB_CLUSTER_ARN, DB_SECRET_ARN and DB_NAME must be set")
	}
	return h, nil
}

// Handle creates the database if it does not exist yet. WordPress itself
// creates its tables on first request; the cluster's default database only
// exists when the cluster was created fresh, so re-creating defensively
// after restores keeps the site bootable.
func (h *Handler) Handle(ctx context.Context, event Event) (*Result, error) {
	if event.Ping {
		if _, err := h.execute(ctx, "SELECT 1"); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		return &Result{Database: h.database, Message: "cluster reachable"}, nil
	}

	existing, err := h.execute(ctx, fmt.Sprintf(
		"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = '%s'", h.database))
	if err != nil {
		return nil, fmt.Errorf("checking database %s: %w", h.database, err)
	}
	if len(existing.Records) > 0 {
		return &Result{
			Database: h.database,
			Created:  false,
			Message:  "database already exists",
		}, nil
	}

	if _, err := h.execute(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", h.database)); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", h.database, err)
	}

	return &Result{
		Database: h.database,
		Created:  true,
		Message:  "database created",
	}, nil
}

func (h *Handler) execute(ctx context.Context, sql string) (*rdsdataservice.ExecuteStatementOutput, error) {
	return h.data.ExecuteStatementWithContext(ctx, &rdsdataservice.ExecuteStatementInput{
		ResourceArn: aws.String(h.clusterARN),
		SecretArn:   aws.String(h.secretARN),
		Sql:         aws.String(sql),
	})
}

func main() {
	sess := session.Must(session.NewSession())
	handler, err := NewHandler(rdsdataservice.New(sess))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(handler.Handle)
}
