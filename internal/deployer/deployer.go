// Package deployer wraps the AWS calls the ops CLI makes against a deployed
// stack: reading outputs, invalidating the edge cache, and invoking the
// database bootstrap function.
package deployer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/cloudfront/cloudfrontiface"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Deployer executes post-deploy operations. The SDK clients sit behind
// their *iface interfaces so tests can substitute fakes.
type Deployer struct {
	cfn cloudformationiface.CloudFormationAPI
	cdn cloudfrontiface.CloudFrontAPI
	fn  lambdaiface.LambdaAPI
	log *zap.Logger

	// now is swappable in tests; invalidation caller references must be
	// unique per request.
	now func() time.Time
}

// New creates a Deployer from concrete SDK clients.
func New(cfn cloudformationiface.CloudFormationAPI, cdn cloudfrontiface.CloudFrontAPI, fn lambdaiface.LambdaAPI, log *zap.Logger) *Deployer {
	return &Deployer{
		cfn: cfn,
		cdn: cdn,
		fn:  fn,
		log: log,
		now: time.Now,
	}
}

// StackOutputs returns the outputs of the named CloudFormation stack.
func (d *Deployer) StackOutputs(ctx context.Context, stackName string) ([]StackOutput, error) {
	resp, err := d.cfn.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("describing stack %s: %w", stackName, err)
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", stackName)
	}

	stack := resp.Stacks[0]
	d.log.Debug("described stack",
		zap.String("stack", stackName),
		zap.String("status", aws.StringValue(stack.StackStatus)),
		zap.Int("outputs", len(stack.Outputs)))

	outputs := make([]StackOutput, 0, len(stack.Outputs))
	for _, out := range stack.Outputs {
		outputs = append(outputs, StackOutput{
			Key:        aws.StringValue(out.OutputKey),
			Value:      aws.StringValue(out.OutputValue),
			ExportName: aws.StringValue(out.ExportName),
		})
	}
	return outputs, nil
}

// Invalidate submits a CloudFront invalidation for the given paths and
// returns its ID.
func (d *Deployer) Invalidate(ctx context.Context, distributionID string, paths []string) (string, error) {
	if len(paths) == 0 {
		paths = []string{"/*"}
	}

	items := make([]*string, len(paths))
	for i, p := range paths {
		items[i] = aws.String(p)
	}

	resp, err := d.cdn.CreateInvalidationWithContext(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &cloudfront.InvalidationBatch{
			CallerReference: aws.String(fmt.Sprintf("opsctl-%d", d.now().UnixNano())),
			Paths: &cloudfront.Paths{
				Quantity: aws.Int64(int64(len(items))),
				Items:    items,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("invalidating distribution %s: %w", distributionID, err)
	}

	id := aws.StringValue(resp.Invalidation.Id)
	d.log.Info("invalidation submitted",
		zap.String("distribution", distributionID),
		zap.String("invalidation", id),
		zap.Strings("paths", paths))
	return id, nil
}

// BootstrapDatabase invokes the bootstrap Lambda synchronously and decodes
// its result.
func (d *Deployer) BootstrapDatabase(ctx context.Context, functionARN string) (*BootstrapResult, error) {
	resp, err := d.fn.InvokeWithContext(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(functionARN),
		Payload:      []byte("{}"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", functionARN, err)
	}
	if fnErr := aws.StringValue(resp.FunctionError); fnErr != "" {
		return nil, fmt.Errorf("bootstrap function failed (%s): %s", fnErr, string(resp.Payload))
	}

	var result BootstrapResult
	if err := json.Unmarshal(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("decoding bootstrap result: %w", err)
	}

	d.log.Info("database bootstrap finished",
		zap.String("database", result.Database),
		zap.Bool("created", result.Created))
	return &result, nil
}
