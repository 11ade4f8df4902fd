// Package stack declares the CDK stack for the WordPress hosting
// infrastructure: networking, shared filesystem, database, the load-balanced
// container service, and the CloudFront edge in front of it.
package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// WordPressStackProps defines the properties for the hosting stack.
type WordPressStackProps struct {
	awscdk.StackProps
	Config *Config
}

// WordPressStack is the top-level CDK stack, exposing the identifiers the
// ops tooling and CI need after deployment.
type WordPressStack struct {
	awscdk.Stack
	SiteURL                string
	DistributionID         string
	DistributionDomainName string
	LoadBalancerDNSName    string
	FileSystemID           string
	DatabaseSecretARN      string
	BootstrapFunctionARN   string
	ServiceName            string
	ClusterName            string
}

// Resources holds what every construct helper needs: the stack scope, the
// shared VPC, and the deployment configuration.
type Resources struct {
	Stack   awscdk.Stack
	Vpc     awsec2.IVpc
	Config  *Config
	Account string
	Region  string
}

// NewWordPressStack creates the full resource graph for one WordPress
// deployment.
func NewWordPressStack(scope constructs.Construct, id string, props *WordPressStackProps) *WordPressStack {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	resources := &Resources{
		Stack:   stack,
		Config:  props.Config,
		Account: *stack.Account(),
		Region:  *stack.Region(),
	}

	// Create resources in dependency order. The identifiers wired between
	// them (filesystem ID, secret ARN, target group) are CDK tokens; the
	// engine infers provisioning order from those references.
	networking := createNetworkingResources(resources)
	resources.Vpc = networking.Vpc

	filesystem := createFilesystemResources(resources)
	database := createDatabaseResources(resources)
	bootstrap := createBootstrapFunction(resources, database)

	originSecret := createOriginVerifySecret(resources)

	service := createServiceResources(resources, filesystem, database, originSecret)

	dns := createDNSResources(resources)
	edge := createEdgeResources(resources, service, originSecret, dns)
	createAliasRecord(resources, dns, edge)

	createConfigurationParameters(resources, filesystem, database, bootstrap, service, edge)

	siteURL := fmt.Sprintf("https://%s", *edge.Distribution.DistributionDomainName())
	if props.Config.CustomDomainEnabled() {
		siteURL = fmt.Sprintf("https://%s", props.Config.DomainName)
	}

	awscdk.NewCfnOutput(resources.Stack, jsii.String("SiteURL"), &awscdk.CfnOutputProps{
		Value:       jsii.String(siteURL),
		Description: jsii.String("Public URL of the WordPress site"),
		ExportName:  jsii.String("WordPress-Site-URL"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("DistributionID"), &awscdk.CfnOutputProps{
		Value:       edge.Distribution.DistributionId(),
		Description: jsii.String("CloudFront distribution ID, used for cache invalidations"),
		ExportName:  jsii.String("WordPress-Distribution-ID"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("DistributionDomainName"), &awscdk.CfnOutputProps{
		Value:       edge.Distribution.DistributionDomainName(),
		Description: jsii.String("CloudFront distribution domain name"),
		ExportName:  jsii.String("WordPress-Distribution-Domain"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("LoadBalancerDNSName"), &awscdk.CfnOutputProps{
		Value:       service.LoadBalancer.LoadBalancerDnsName(),
		Description: jsii.String("Origin load balancer DNS name (direct access is rejected)"),
		ExportName:  jsii.String("WordPress-LoadBalancer-DNS"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("FileSystemID"), &awscdk.CfnOutputProps{
		Value:       filesystem.FileSystem.FileSystemId(),
		Description: jsii.String("Shared content filesystem ID"),
		ExportName:  jsii.String("WordPress-FileSystem-ID"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("DatabaseSecretARN"), &awscdk.CfnOutputProps{
		Value:       database.CredentialsSecret.SecretArn(),
		Description: jsii.String("Secrets Manager ARN of the database credentials"),
		ExportName:  jsii.String("WordPress-Database-Secret-ARN"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("BootstrapFunctionARN"), &awscdk.CfnOutputProps{
		Value:       bootstrap.Function.FunctionArn(),
		Description: jsii.String("Database bootstrap Lambda ARN"),
		ExportName:  jsii.String("WordPress-Bootstrap-Function-ARN"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("ServiceName"), &awscdk.CfnOutputProps{
		Value:       service.Service.ServiceName(),
		Description: jsii.String("ECS service name"),
		ExportName:  jsii.String("WordPress-Service-Name"),
	})

	awscdk.NewCfnOutput(resources.Stack, jsii.String("ClusterName"), &awscdk.CfnOutputProps{
		Value:       service.Cluster.ClusterName(),
		Description: jsii.String("ECS cluster name"),
		ExportName:  jsii.String("WordPress-Cluster-Name"),
	})

	return &WordPressStack{
		Stack:                  stack,
		SiteURL:                siteURL,
		DistributionID:         *edge.Distribution.DistributionId(),
		DistributionDomainName: *edge.Distribution.DistributionDomainName(),
		LoadBalancerDNSName:    *service.LoadBalancer.LoadBalancerDnsName(),
		FileSystemID:           *filesystem.FileSystem.FileSystemId(),
		DatabaseSecretARN:      *database.CredentialsSecret.SecretArn(),
		BootstrapFunctionARN:   *bootstrap.Function.FunctionArn(),
		ServiceName:            *service.Service.ServiceName(),
		ClusterName:            *service.Cluster.ClusterName(),
	}
}

// tagResource applies the shared project tag to a construct.
func tagResource(construct constructs.IConstruct) {
	awscdk.Tags_Of(construct).Add(jsii.String(DefaultResourceTagKey), jsii.String(DefaultResourceTagValue), nil)
}
