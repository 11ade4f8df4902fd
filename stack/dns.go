package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/jsii-runtime-go"
)

// DNSResources holds the hosted zone and the viewer certificate. Both are
// nil when the deployment has no custom domain.
type DNSResources struct {
	HostedZone  awsroute53.IHostedZone
	Certificate awscertificatemanager.ICertificate
}

// createDNSResources looks up the hosted zone and issues the certificate for
// the configured domain. CloudFront only accepts certificates from
// us-east-1, regardless of where the stack deploys.
func createDNSResources(resources *Resources) *DNSResources {
	if !resources.Config.CustomDomainEnabled() {
		return &DNSResources{}
	}

	zone := awsroute53.HostedZone_FromLookup(resources.Stack, jsii.String("SiteHostedZone"), &awsroute53.HostedZoneProviderProps{
		DomainName: jsii.String(resources.Config.HostedZoneDomain),
	})

	// TODO: Move to Certificate with cross-region support once the stack can
	// depend on a us-east-1 companion stack.
	//nolint:staticcheck // DnsValidatedCertificate is deprecated but remains the single-stack way to issue in us-east-1
	certificate := awscertificatemanager.NewDnsValidatedCertificate(resources.Stack, jsii.String("SiteCertificate"), &awscertificatemanager.DnsValidatedCertificateProps{
		DomainName: jsii.String(resources.Config.DomainName),
		HostedZone: zone,
		Region:     jsii.String("us-east-1"),
		Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
	})
	tagResource(certificate)

	return &DNSResources{
		HostedZone:  zone,
		Certificate: certificate,
	}
}

// createAliasRecord binds the configured domain to the distribution.
func createAliasRecord(resources *Resources, dns *DNSResources, edge *EdgeResources) {
	if !resources.Config.CustomDomainEnabled() {
		return
	}

	record := awsroute53.NewARecord(resources.Stack, jsii.String("SiteAliasRecord"), &awsroute53.ARecordProps{
		Zone:       dns.HostedZone,
		RecordName: jsii.String(resources.Config.DomainName),
		Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(edge.Distribution)),
	})
	tagResource(record)
}
