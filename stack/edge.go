package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/jsii-runtime-go"
)

// EdgeResources holds the CloudFront distribution fronting the site.
type EdgeResources struct {
	Distribution awscloudfront.Distribution
	OriginSecret awssecretsmanager.ISecret
}

// createOriginVerifySecret creates the shared secret CloudFront presents to
// the origin. The value is generated at deploy time and lives only in
// Secrets Manager, the distribution config, and the listener rule.
func createOriginVerifySecret(resources *Resources) awssecretsmanager.ISecret {
	secret := awssecretsmanager.NewSecret(resources.Stack, jsii.String("OriginVerifySecret"), &awssecretsmanager.SecretProps{
		SecretName:  jsii.String(fmt.Sprintf("%s-origin-verify", resources.Config.SiteName)),
		Description: jsii.String("Shared secret restricting origin access to CloudFront"),
		GenerateSecretString: &awssecretsmanager.SecretStringGenerator{
			ExcludePunctuation: jsii.Bool(true),
			PasswordLength:     jsii.Number(32),
		},
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})
	tagResource(secret)
	return secret
}

// createEdgeResources creates the CloudFront distribution with path-based
// cache behaviors: static WordPress assets are cached at the edge, while
// admin, login, and everything dynamic passes through with full viewer
// context (cookies decide what a page looks like).
func createEdgeResources(resources *Resources, service *ServiceResources, originSecret awssecretsmanager.ISecret, dns *DNSResources) *EdgeResources {
	origin := awscloudfrontorigins.NewLoadBalancerV2Origin(service.LoadBalancer, &awscloudfrontorigins.LoadBalancerV2OriginProps{
		ProtocolPolicy: awscloudfront.OriginProtocolPolicy_HTTP_ONLY,
		ReadTimeout:    awscdk.Duration_Seconds(jsii.Number(60)),
		CustomHeaders: &map[string]*string{
			OriginVerifyHeader: originSecret.SecretValue().UnsafeUnwrap(),
		},
	})

	dynamicBehavior := awscloudfront.BehaviorOptions{
		Origin:               origin,
		ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		AllowedMethods:       awscloudfront.AllowedMethods_ALLOW_ALL(),
		CachePolicy:          awscloudfront.CachePolicy_CACHING_DISABLED(),
		OriginRequestPolicy:  awscloudfront.OriginRequestPolicy_ALL_VIEWER(),
	}

	staticBehavior := awscloudfront.BehaviorOptions{
		Origin:               origin,
		ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		AllowedMethods:       awscloudfront.AllowedMethods_ALLOW_GET_HEAD(),
		CachedMethods:        awscloudfront.CachedMethods_CACHE_GET_HEAD(),
		CachePolicy:          awscloudfront.CachePolicy_CACHING_OPTIMIZED(),
		Compress:             jsii.Bool(true),
	}

	props := &awscloudfront.DistributionProps{
		DefaultBehavior: &dynamicBehavior,
		AdditionalBehaviors: &map[string]*awscloudfront.BehaviorOptions{
			"/wp-content/*":  &staticBehavior,
			"/wp-includes/*": &staticBehavior,
			"/wp-admin/*":    &dynamicBehavior,
			"/wp-login.php":  &dynamicBehavior,
		},
		Comment:     jsii.String(fmt.Sprintf("%s edge distribution", resources.Config.SiteName)),
		EnableIpv6:  jsii.Bool(true),
		HttpVersion: awscloudfront.HttpVersion_HTTP2_AND_3,
		PriceClass:  awscloudfront.PriceClass_PRICE_CLASS_100,
	}

	if resources.Config.CustomDomainEnabled() {
		props.DomainNames = jsii.Strings(resources.Config.DomainName)
		props.Certificate = dns.Certificate
	}

	distribution := awscloudfront.NewDistribution(resources.Stack, jsii.String("EdgeDistribution"), props)
	tagResource(distribution)
	distribution.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY)

	return &EdgeResources{
		Distribution: distribution,
		OriginSecret: originSecret,
	}
}
