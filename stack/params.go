package stack

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/jsii-runtime-go"
)

// createConfigurationParameters publishes the deployment's identifiers to
// Parameter Store so the ops tooling and CI can resolve them without parsing
// stack outputs.
func createConfigurationParameters(resources *Resources, filesystem *FilesystemResources, database *DatabaseResources, bootstrap *BootstrapResources, service *ServiceResources, edge *EdgeResources) {
	params := map[string]string{
		ParameterPrefix + "/distribution-id":        *edge.Distribution.DistributionId(),
		ParameterPrefix + "/distribution-domain":    *edge.Distribution.DistributionDomainName(),
		ParameterPrefix + "/load-balancer-dns":      *service.LoadBalancer.LoadBalancerDnsName(),
		ParameterPrefix + "/ecs-cluster-name":       *service.Cluster.ClusterName(),
		ParameterPrefix + "/ecs-service-name":       *service.Service.ServiceName(),
		ParameterPrefix + "/filesystem-id":          *filesystem.FileSystem.FileSystemId(),
		ParameterPrefix + "/db-secret-name":         resources.Config.DatabaseSecretName,
		ParameterPrefix + "/db-secret-arn":          *database.CredentialsSecret.SecretArn(),
		ParameterPrefix + "/bootstrap-function-arn": *bootstrap.Function.FunctionArn(),
		ParameterPrefix + "/aws-region":             resources.Region,
	}

	for paramName, paramValue := range params {
		constructID := strings.ReplaceAll(strings.ReplaceAll(strings.TrimPrefix(paramName, ParameterPrefix+"/"), "/", ""), "-", "")
		param := awsssm.NewStringParameter(resources.Stack, jsii.String(fmt.Sprintf("Param%s", constructID)), &awsssm.StringParameterProps{
			ParameterName: jsii.String(paramName),
			StringValue:   jsii.String(paramValue),
			Description:   jsii.String(fmt.Sprintf("Configuration parameter for %s", paramName)),
			Tier:          awsssm.ParameterTier_STANDARD,
		})
		tagResource(param)
	}
}
