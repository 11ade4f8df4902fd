package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsefs"
	"github.com/aws/jsii-runtime-go"
)

// FilesystemResources holds the shared content filesystem and the access
// point the service mounts through.
type FilesystemResources struct {
	FileSystem  awsefs.FileSystem
	AccessPoint awsefs.AccessPoint
}

// createFilesystemResources creates the EFS filesystem that persists
// wp-content across task replacements, and an access point that pins every
// mount to the unprivileged identity the container runs as.
func createFilesystemResources(resources *Resources) *FilesystemResources {
	fileSystem := awsefs.NewFileSystem(resources.Stack, jsii.String("ContentFileSystem"), &awsefs.FileSystemProps{
		Vpc:       resources.Vpc,
		Encrypted: jsii.Bool(true),
		VpcSubnets: &awsec2.SubnetSelection{
			SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
		},
		PerformanceMode: awsefs.PerformanceMode_GENERAL_PURPOSE,
		ThroughputMode:  awsefs.ThroughputMode_BURSTING,
		// Uploads are read rarely after the first weeks; shift them to the
		// infrequent-access class.
		LifecyclePolicy: awsefs.LifecyclePolicy_AFTER_30_DAYS,
		RemovalPolicy:   awscdk.RemovalPolicy_DESTROY,
	})
	tagResource(fileSystem)

	accessPoint := awsefs.NewAccessPoint(resources.Stack, jsii.String("ContentAccessPoint"), &awsefs.AccessPointProps{
		FileSystem: fileSystem,
		Path:       jsii.String(ContentMountPath),
		CreateAcl: &awsefs.Acl{
			OwnerUid:    jsii.String(ContentPosixUID),
			OwnerGid:    jsii.String(ContentPosixGID),
			Permissions: jsii.String("755"),
		},
		PosixUser: &awsefs.PosixUser{
			Uid: jsii.String(ContentPosixUID),
			Gid: jsii.String(ContentPosixGID),
		},
	})
	tagResource(accessPoint)

	return &FilesystemResources{
		FileSystem:  fileSystem,
		AccessPoint: accessPoint,
	}
}
