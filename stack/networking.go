package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"
)

// NetworkingResources holds the VPC shared by every other component.
type NetworkingResources struct {
	Vpc awsec2.IVpc
}

// createNetworkingResources creates the VPC with a public tier for the load
// balancer and a private tier for the service tasks, the database, and the
// filesystem mount targets.
func createNetworkingResources(resources *Resources) *NetworkingResources {
	vpc := awsec2.NewVpc(resources.Stack, jsii.String("WordPressVpc"), &awsec2.VpcProps{
		MaxAzs:      jsii.Number(2),
		NatGateways: jsii.Number(1),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{
			{
				CidrMask:   jsii.Number(24),
				Name:       jsii.String("Public"),
				SubnetType: awsec2.SubnetType_PUBLIC,
			},
			{
				CidrMask:   jsii.Number(24),
				Name:       jsii.String("Private"),
				SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
			},
		},
	})
	tagResource(vpc)

	vpc.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	return &NetworkingResources{
		Vpc: vpc,
	}
}
