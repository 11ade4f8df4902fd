package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapplicationautoscaling"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/jsii-runtime-go"
)

// ServiceResources holds the ECS cluster, the Fargate service, and the load
// balancer fronting it.
type ServiceResources struct {
	Cluster      awsecs.ICluster
	TaskDef      awsecs.FargateTaskDefinition
	Service      awsecs.FargateService
	LogGroup     awslogs.ILogGroup
	LoadBalancer awselasticloadbalancingv2.IApplicationLoadBalancer
	TargetGroup  awselasticloadbalancingv2.IApplicationTargetGroup
}

const contentVolumeName = "wordpress-content"

// createServiceResources creates the Fargate task definition and service,
// mounts the shared filesystem, and puts an internet-facing ALB in front.
// The ALB only forwards requests carrying the origin-verify header; anything
// that bypasses CloudFront gets a fixed 403.
func createServiceResources(resources *Resources, filesystem *FilesystemResources, database *DatabaseResources, originSecret awssecretsmanager.ISecret) *ServiceResources {
	cfg := resources.Config

	cluster := awsecs.NewCluster(resources.Stack, jsii.String("WordPressCluster"), &awsecs.ClusterProps{
		Vpc:               resources.Vpc,
		ContainerInsights: jsii.Bool(true),
	})
	tagResource(cluster)
	cluster.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	logGroup := awslogs.NewLogGroup(resources.Stack, jsii.String("ServiceLogGroup"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String(fmt.Sprintf("/ecs/%s", cfg.SiteName)),
		Retention:     awslogs.RetentionDays_ONE_MONTH,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})
	tagResource(logGroup)

	taskRole := awsiam.NewRole(resources.Stack, jsii.String("WordPressTaskRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("ecs-tasks.amazonaws.com"), nil),
	})
	tagResource(taskRole)
	taskRole.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	database.CredentialsSecret.GrantRead(taskRole, nil)

	// Mount authorization for the content filesystem. Transport-level access
	// is handled separately through security groups below.
	taskRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"elasticfilesystem:ClientMount",
			"elasticfilesystem:ClientWrite",
		),
		Resources: &[]*string{
			filesystem.FileSystem.FileSystemArn(),
		},
		Conditions: &map[string]interface{}{
			"StringEquals": map[string]interface{}{
				"elasticfilesystem:AccessPointArn": filesystem.AccessPoint.AccessPointArn(),
			},
		},
	}))

	taskDef := awsecs.NewFargateTaskDefinition(resources.Stack, jsii.String("WordPressTaskDef"), &awsecs.FargateTaskDefinitionProps{
		Cpu:            jsii.Number(cfg.TaskCPU),
		MemoryLimitMiB: jsii.Number(cfg.TaskMemory),
		TaskRole:       taskRole,
	})
	tagResource(taskDef)
	taskDef.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	taskDef.AddVolume(&awsecs.Volume{
		Name: jsii.String(contentVolumeName),
		EfsVolumeConfiguration: &awsecs.EfsVolumeConfiguration{
			FileSystemId:      filesystem.FileSystem.FileSystemId(),
			TransitEncryption: jsii.String("ENABLED"),
			AuthorizationConfig: &awsecs.AuthorizationConfig{
				AccessPointId: filesystem.AccessPoint.AccessPointId(),
				Iam:           jsii.String("ENABLED"),
			},
		},
	})

	container := taskDef.AddContainer(jsii.String("WordPressContainer"), &awsecs.ContainerDefinitionOptions{
		Image: awsecs.ContainerImage_FromRegistry(jsii.String(cfg.WordPressImage), nil),
		Logging: awsecs.LogDrivers_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String("wordpress"),
			LogGroup:     logGroup,
		}),
		Environment: &map[string]*string{
			// Bitnami database wiring. Credentials are secret references
			// resolved at launch, never template values.
			"WORDPRESS_DATABASE_HOST":        database.Cluster.ClusterEndpoint().Hostname(),
			"WORDPRESS_DATABASE_PORT_NUMBER": jsii.String(fmt.Sprintf("%d", DatabasePort)),
			"WORDPRESS_DATABASE_NAME":        jsii.String(DatabaseName),

			// CloudFront terminates TLS; the origin hop stays HTTP.
			"WORDPRESS_ENABLE_HTTPS":   jsii.String("no"),
			"APACHE_HTTP_PORT_NUMBER":  jsii.String(fmt.Sprintf("%d", ContainerPort)),
			"WORDPRESS_SKIP_BOOTSTRAP": jsii.String("no"),

			"PHP_MEMORY_LIMIT":     jsii.String("512M"),
			"ALLOW_EMPTY_PASSWORD": jsii.String("no"),
		},
		Secrets: &map[string]awsecs.Secret{
			"WORDPRESS_DATABASE_USER":     awsecs.Secret_FromSecretsManager(database.CredentialsSecret, jsii.String("username")),
			"WORDPRESS_DATABASE_PASSWORD": awsecs.Secret_FromSecretsManager(database.CredentialsSecret, jsii.String("password")),
		},
	})

	container.AddPortMappings(&awsecs.PortMapping{
		ContainerPort: jsii.Number(ContainerPort),
	})

	container.AddMountPoints(&awsecs.MountPoint{
		SourceVolume:  jsii.String(contentVolumeName),
		ContainerPath: jsii.String(ContentMountPath),
		ReadOnly:      jsii.Bool(false),
	})

	serviceSG := awsec2.NewSecurityGroup(resources.Stack, jsii.String("WordPressServiceSG"), &awsec2.SecurityGroupProps{
		Vpc:              resources.Vpc,
		Description:      jsii.String("WordPress service tasks"),
		AllowAllOutbound: jsii.Bool(true),
	})
	tagResource(serviceSG)
	serviceSG.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	service := awsecs.NewFargateService(resources.Stack, jsii.String("WordPressService"), &awsecs.FargateServiceProps{
		Cluster:        cluster,
		TaskDefinition: taskDef,
		DesiredCount:   jsii.Number(cfg.DesiredCount),
		VpcSubnets: &awsec2.SubnetSelection{
			SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
		},
		SecurityGroups: &[]awsec2.ISecurityGroup{serviceSG},
		// Roll back automatically when a deployment cannot pass the target
		// group health check.
		CircuitBreaker: &awsecs.DeploymentCircuitBreaker{
			Enable:   jsii.Bool(true),
			Rollback: jsii.Bool(true),
		},
		HealthCheckGracePeriod: awscdk.Duration_Seconds(jsii.Number(180)),
		MinHealthyPercent:      jsii.Number(50),
	})
	tagResource(service)
	service.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	// Network paths into the data tier.
	database.Cluster.Connections().AllowFrom(serviceSG, awsec2.Port_Tcp(jsii.Number(DatabasePort)), jsii.String("WordPress tasks to MySQL"))
	filesystem.FileSystem.Connections().AllowDefaultPortFrom(serviceSG, jsii.String("WordPress tasks to EFS"))

	loadBalancer, targetGroup := createLoadBalancer(resources, service, originSecret)

	scaling := service.AutoScaleTaskCount(&awsapplicationautoscaling.EnableScalingProps{
		MinCapacity: jsii.Number(cfg.AutoscaleMinTasks),
		MaxCapacity: jsii.Number(cfg.AutoscaleMaxTasks),
	})
	scaling.ScaleOnCpuUtilization(jsii.String("CpuScaling"), &awsecs.CpuUtilizationScalingProps{
		TargetUtilizationPercent: jsii.Number(cfg.CPUTargetPercent),
		ScaleInCooldown:          awscdk.Duration_Minutes(jsii.Number(5)),
		ScaleOutCooldown:         awscdk.Duration_Minutes(jsii.Number(1)),
	})
	scaling.ScaleOnMemoryUtilization(jsii.String("MemoryScaling"), &awsecs.MemoryUtilizationScalingProps{
		TargetUtilizationPercent: jsii.Number(cfg.MemTargetPercent),
		ScaleInCooldown:          awscdk.Duration_Minutes(jsii.Number(5)),
		ScaleOutCooldown:         awscdk.Duration_Minutes(jsii.Number(1)),
	})

	return &ServiceResources{
		Cluster:      cluster,
		TaskDef:      taskDef,
		Service:      service,
		LogGroup:     logGroup,
		LoadBalancer: loadBalancer,
		TargetGroup:  targetGroup,
	}
}

// createLoadBalancer creates the internet-facing ALB and attaches the
// service. The listener's default action is a fixed 403; a single rule
// forwards to the target group only when the origin-verify header carries
// the shared secret CloudFront injects.
func createLoadBalancer(resources *Resources, service awsecs.FargateService, originSecret awssecretsmanager.ISecret) (awselasticloadbalancingv2.IApplicationLoadBalancer, awselasticloadbalancingv2.IApplicationTargetGroup) {
	loadBalancer := awselasticloadbalancingv2.NewApplicationLoadBalancer(resources.Stack, jsii.String("WordPressALB"), &awselasticloadbalancingv2.ApplicationLoadBalancerProps{
		Vpc:            resources.Vpc,
		InternetFacing: jsii.Bool(true),
		VpcSubnets: &awsec2.SubnetSelection{
			SubnetType: awsec2.SubnetType_PUBLIC,
		},
	})
	tagResource(loadBalancer)
	loadBalancer.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	targetGroup := awselasticloadbalancingv2.NewApplicationTargetGroup(resources.Stack, jsii.String("WordPressTargetGroup"), &awselasticloadbalancingv2.ApplicationTargetGroupProps{
		Port:       jsii.Number(ContainerPort),
		Protocol:   awselasticloadbalancingv2.ApplicationProtocol_HTTP,
		Vpc:        resources.Vpc,
		TargetType: awselasticloadbalancingv2.TargetType_IP,
		HealthCheck: &awselasticloadbalancingv2.HealthCheck{
			Path: jsii.String("/wp-login.php"),
			// WordPress answers redirects until the site is installed.
			HealthyHttpCodes:        jsii.String("200-399"),
			HealthyThresholdCount:   jsii.Number(2),
			UnhealthyThresholdCount: jsii.Number(3),
			Timeout:                 awscdk.Duration_Seconds(jsii.Number(10)),
			Interval:                awscdk.Duration_Seconds(jsii.Number(30)),
		},
	})
	tagResource(targetGroup)

	service.AttachToApplicationTargetGroup(targetGroup)

	listener := loadBalancer.AddListener(jsii.String("WordPressListener"), &awselasticloadbalancingv2.BaseApplicationListenerProps{
		Port:     jsii.Number(80),
		Protocol: awselasticloadbalancingv2.ApplicationProtocol_HTTP,
		DefaultAction: awselasticloadbalancingv2.ListenerAction_FixedResponse(jsii.Number(403), &awselasticloadbalancingv2.FixedResponseOptions{
			ContentType: jsii.String("text/plain"),
			MessageBody: jsii.String("Forbidden"),
		}),
	})

	awselasticloadbalancingv2.NewApplicationListenerRule(resources.Stack, jsii.String("OriginVerifyRule"), &awselasticloadbalancingv2.ApplicationListenerRuleProps{
		Listener: listener,
		Priority: jsii.Number(10),
		Conditions: &[]awselasticloadbalancingv2.ListenerCondition{
			awselasticloadbalancingv2.ListenerCondition_HttpHeader(jsii.String(OriginVerifyHeader), &[]*string{
				originSecret.SecretValue().UnsafeUnwrap(),
			}),
		},
		Action: awselasticloadbalancingv2.ListenerAction_Forward(&[]awselasticloadbalancingv2.IApplicationTargetGroup{targetGroup}, nil),
	})

	return loadBalancer, targetGroup
}
