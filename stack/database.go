package stack

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsrds"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/jsii-runtime-go"
)

// DatabaseResources holds the Aurora cluster and its credentials secret.
type DatabaseResources struct {
	Cluster           awsrds.IDatabaseCluster
	CredentialsSecret awssecretsmanager.ISecret
}

// BootstrapResources holds the database bootstrap Lambda.
type BootstrapResources struct {
	Function awslambda.IFunction
	Role     awsiam.Role
}

// createDatabaseResources creates the credentials secret and the Aurora
// Serverless v2 MySQL cluster the site stores its content metadata in. The
// secret is created under a configured name and its password is generated;
// everything downstream references the secret, never a literal credential.
func createDatabaseResources(resources *Resources) *DatabaseResources {
	credentialsSecret := awssecretsmanager.NewSecret(resources.Stack, jsii.String("DatabaseSecret"), &awssecretsmanager.SecretProps{
		SecretName:  jsii.String(resources.Config.DatabaseSecretName),
		Description: jsii.String("WordPress database credentials"),
		GenerateSecretString: &awssecretsmanager.SecretStringGenerator{
			SecretStringTemplate: jsii.String(fmt.Sprintf("{\"username\": %q}", DatabaseUser)),
			GenerateStringKey:    jsii.String("password"),
			ExcludeCharacters:    jsii.String("\"@/\\"),
		},
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})
	tagResource(credentialsSecret)

	cluster := awsrds.NewDatabaseCluster(resources.Stack, jsii.String("WordPressDatabase"), &awsrds.DatabaseClusterProps{
		Engine: awsrds.DatabaseClusterEngine_AuroraMysql(&awsrds.AuroraMysqlClusterEngineProps{
			Version: awsrds.AuroraMysqlEngineVersion_VER_3_08_0(),
		}),
		Writer: awsrds.ClusterInstance_ServerlessV2(jsii.String("writer"), &awsrds.ServerlessV2ClusterInstanceProps{
			AutoMinorVersionUpgrade: jsii.Bool(true),
		}),
		Vpc: resources.Vpc,
		VpcSubnets: &awsec2.SubnetSelection{
			SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
		},
		DefaultDatabaseName: jsii.String(DatabaseName),
		Port:                jsii.Number(DatabasePort),
		Credentials:         awsrds.Credentials_FromSecret(credentialsSecret, jsii.String(DatabaseUser)),
		ClusterIdentifier:   jsii.String(fmt.Sprintf("%s-db", resources.Config.SiteName)),
		RemovalPolicy:       awscdk.RemovalPolicy_DESTROY,
		// The bootstrap Lambda reaches the cluster through the Data API, so
		// it needs no VPC attachment of its own.
		EnableDataApi:           jsii.Bool(true),
		ServerlessV2MinCapacity: jsii.Number(resources.Config.DatabaseMinCapacity),
		ServerlessV2MaxCapacity: jsii.Number(resources.Config.DatabaseMaxCapacity),
	})
	tagResource(cluster)

	return &DatabaseResources{
		Cluster:           cluster,
		CredentialsSecret: credentialsSecret,
	}
}

// createBootstrapFunction creates the Lambda that prepares the WordPress
// schema on a fresh cluster. It is invoked on demand by the ops CLI after
// the first deploy.
func createBootstrapFunction(resources *Resources, database *DatabaseResources) *BootstrapResources {
	role := awsiam.NewRole(resources.Stack, jsii.String("DbBootstrapRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
	})
	tagResource(role)
	role.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	role.AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSLambdaBasicExecutionRole")))

	database.CredentialsSecret.GrantRead(role, nil)

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: &[]*string{
			jsii.String("rds-data:ExecuteStatement"),
			jsii.String("rds-data:BatchExecuteStatement"),
			jsii.String("rds-data:BeginTransaction"),
			jsii.String("rds-data:CommitTransaction"),
			jsii.String("rds-data:RollbackTransaction"),
		},
		Resources: &[]*string{
			database.Cluster.ClusterArn(),
		},
	}))

	lambdaPath := filepath.Join(getThisFileDir(), "../lambda/dbbootstrap")

	function := awslambda.NewFunction(resources.Stack, jsii.String("DbBootstrapFunction"), &awslambda.FunctionProps{
		Handler: jsii.String("bootstrap"),
		Runtime: awslambda.Runtime_PROVIDED_AL2023(),
		Code: awslambda.AssetCode_FromAsset(jsii.String(lambdaPath), &awss3assets.AssetOptions{
			Bundling: &awscdk.BundlingOptions{
				Image: awscdk.DockerImage_FromRegistry(jsii.String("golang:1.24")),
				Command: jsii.Strings(
					"bash", "-c",
					"export GOCACHE=/tmp/gocache GOPATH=/tmp/go CGO_ENABLED=0 GOOS=linux && go build -tags lambda.norpc -o /asset-output/bootstrap .",
				),
				User: jsii.String("root"),
			},
		}),
		Environment: &map[string]*string{
			"DB_CLUSTER_ARN": database.Cluster.ClusterArn(),
			"DB_SECRET_ARN":  database.CredentialsSecret.SecretArn(),
			"DB_NAME":        jsii.String(DatabaseName),
		},
		Timeout: awscdk.Duration_Seconds(jsii.Number(30)),
		Role:    role,
	})
	tagResource(function)
	function.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	return &BootstrapResources{
		Function: function,
		Role:     role,
	}
}

func getThisFileDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("unable to get current file path")
	}
	return filepath.Dir(filename)
}
