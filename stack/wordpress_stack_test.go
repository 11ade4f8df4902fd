package stack

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

// synthTestStack synthesizes the stack with asset bundling disabled so the
// tests never shell out to docker.
func synthTestStack(t *testing.T, cfg *Config) assertions.Template {
	t.Helper()
	require.NoError(t, cfg.Validate())

	app := awscdk.NewApp(&awscdk.AppProps{
		Context: &map[string]interface{}{
			"aws:cdk:bundling-stacks": []string{},
		},
	})
	s := NewWordPressStack(app, "TestWordPressHosting", &WordPressStackProps{
		StackProps: awscdk.StackProps{
			Env: &awscdk.Environment{
				Account: jsii.String("123456789012"),
				Region:  jsii.String("eu-west-1"),
			},
		},
		Config: cfg,
	})
	return assertions.Template_FromStack(s.Stack, nil)
}

func TestStackDeclaresCoreTopology(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.ResourceCountIs(jsii.String("AWS::EC2::VPC"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::EFS::FileSystem"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::RDS::DBCluster"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::ECS::Service"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CloudFront::Distribution"), jsii.Number(1))
}

func TestFilesystemIsEncryptedWithScopedAccessPoint(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::EFS::FileSystem"), map[string]interface{}{
		"Encrypted": true,
	})
	template.HasResourceProperties(jsii.String("AWS::EFS::AccessPoint"), map[string]interface{}{
		"PosixUser": assertions.Match_ObjectLike(&map[string]interface{}{
			"Uid": ContentPosixUID,
			"Gid": ContentPosixGID,
		}),
		"RootDirectory": assertions.Match_ObjectLike(&map[string]interface{}{
			"Path": ContentMountPath,
		}),
	})
}

func TestDatabaseClusterUsesNamedGeneratedSecret(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::SecretsManager::Secret"), map[string]interface{}{
		"Name": "wordpress-db-credentials",
		"GenerateSecretString": assertions.Match_ObjectLike(&map[string]interface{}{
			"GenerateStringKey": "password",
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::RDS::DBCluster"), map[string]interface{}{
		"Engine":             "aurora-mysql",
		"DatabaseName":       DatabaseName,
		"EnableHttpEndpoint": true,
		"ServerlessV2ScalingConfiguration": assertions.Match_ObjectLike(&map[string]interface{}{
			"MinCapacity": 0.5,
			"MaxCapacity": 2,
		}),
	})
}

func TestContainerPortMatchesTargetGroupPort(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::ECS::TaskDefinition"), map[string]interface{}{
		"ContainerDefinitions": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"PortMappings": assertions.Match_ArrayWith(&[]interface{}{
					assertions.Match_ObjectLike(&map[string]interface{}{
						"ContainerPort": ContainerPort,
					}),
				}),
			}),
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::TargetGroup"), map[string]interface{}{
		"Port":            ContainerPort,
		"TargetType":      "ip",
		"HealthCheckPath": "/wp-login.php",
	})
}

func TestTaskMountsSharedFilesystemWithTransitEncryption(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::ECS::TaskDefinition"), map[string]interface{}{
		"Volumes": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"Name": contentVolumeName,
				"EFSVolumeConfiguration": assertions.Match_ObjectLike(&map[string]interface{}{
					"TransitEncryption": "ENABLED",
				}),
			}),
		}),
	})
}

func TestServiceRollsBackOnFailedDeployments(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::ECS::Service"), map[string]interface{}{
		"DesiredCount": 2,
		"DeploymentConfiguration": assertions.Match_ObjectLike(&map[string]interface{}{
			"DeploymentCircuitBreaker": assertions.Match_ObjectLike(&map[string]interface{}{
				"Enable":   true,
				"Rollback": true,
			}),
		}),
	})
}

func TestAutoscalingBoundsAndTargets(t *testing.T) {
	cfg := validConfig()
	cfg.AutoscaleMinTasks = 2
	cfg.AutoscaleMaxTasks = 6
	cfg.DesiredCount = 3
	template := synthTestStack(t, cfg)

	template.HasResourceProperties(jsii.String("AWS::ApplicationAutoScaling::ScalableTarget"), map[string]interface{}{
		"MinCapacity": 2,
		"MaxCapacity": 6,
	})
	template.HasResourceProperties(jsii.String("AWS::ApplicationAutoScaling::ScalingPolicy"), map[string]interface{}{
		"TargetTrackingScalingPolicyConfiguration": assertions.Match_ObjectLike(&map[string]interface{}{
			"PredefinedMetricSpecification": assertions.Match_ObjectLike(&map[string]interface{}{
				"PredefinedMetricType": "ECSServiceAverageCPUUtilization",
			}),
			"TargetValue": 75,
		}),
	})
	template.ResourceCountIs(jsii.String("AWS::ApplicationAutoScaling::ScalingPolicy"), jsii.Number(2))
}

func TestListenerRejectsTrafficWithoutOriginVerifyHeader(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"DefaultActions": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"Type": "fixed-response",
				"FixedResponseConfig": assertions.Match_ObjectLike(&map[string]interface{}{
					"StatusCode": "403",
				}),
			}),
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::ListenerRule"), map[string]interface{}{
		"Conditions": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"Field": "http-header",
				"HttpHeaderConfig": assertions.Match_ObjectLike(&map[string]interface{}{
					"HttpHeaderName": OriginVerifyHeader,
				}),
			}),
		}),
	})
}

func TestDistributionInjectsOriginVerifyHeader(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"Origins": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{
					"OriginCustomHeaders": assertions.Match_ArrayWith(&[]interface{}{
						assertions.Match_ObjectLike(&map[string]interface{}{
							"HeaderName": OriginVerifyHeader,
						}),
					}),
				}),
			}),
		}),
	})
}

func TestDistributionCachesStaticPathsOnly(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"DefaultCacheBehavior": assertions.Match_ObjectLike(&map[string]interface{}{
				"ViewerProtocolPolicy": "redirect-to-https",
			}),
			"CacheBehaviors": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{
					"PathPattern": "/wp-content/*",
				}),
				assertions.Match_ObjectLike(&map[string]interface{}{
					"PathPattern": "/wp-includes/*",
				}),
				assertions.Match_ObjectLike(&map[string]interface{}{
					"PathPattern": "/wp-admin/*",
				}),
			}),
		}),
	})
}

func TestCustomDomainAddsCertificateAliasAndRecord(t *testing.T) {
	cfg := validConfig()
	cfg.DomainName = "blog.example.com"
	cfg.HostedZoneDomain = "example.com"
	template := synthTestStack(t, cfg)

	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"Aliases": assertions.Match_ArrayWith(&[]interface{}{
				"blog.example.com",
			}),
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::Route53::RecordSet"), map[string]interface{}{
		"Name": "blog.example.com.",
		"Type": "A",
	})
}

func TestDefaultDeploymentSkipsDNS(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.ResourceCountIs(jsii.String("AWS::Route53::RecordSet"), jsii.Number(0))
}

func TestStackPublishesParametersAndOutputs(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.ResourceCountIs(jsii.String("AWS::SSM::Parameter"), jsii.Number(10))
	template.HasOutput(jsii.String("DistributionID"), map[string]interface{}{
		"Export": assertions.Match_ObjectLike(&map[string]interface{}{
			"Name": "WordPress-Distribution-ID",
		}),
	})
	template.HasOutput(jsii.String("DatabaseSecretARN"), assertions.Match_AnyValue())
	template.HasOutput(jsii.String("BootstrapFunctionARN"), assertions.Match_AnyValue())
}

func TestBootstrapFunctionIsWiredToCluster(t *testing.T) {
	template := synthTestStack(t, validConfig())

	template.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
		"Handler": "bootstrap",
		"Runtime": "provided.al2023",
		"Environment": assertions.Match_ObjectLike(&map[string]interface{}{
			"Variables": assertions.Match_ObjectLike(&map[string]interface{}{
				"DB_NAME": DatabaseName,
			}),
		}),
	})
}
