package stack

// Tag applied to every resource in the stack so deployments are easy to
// find and to cost-allocate.
const (
	DefaultResourceTagKey   = "project"
	DefaultResourceTagValue = "wordpress-hosting"
)

const (
	// DatabaseName is the schema the WordPress container connects to.
	DatabaseName = "wordpress"

	// DatabaseUser is the master username stored in the credentials secret.
	DatabaseUser = "wp_admin"

	// DatabasePort is the MySQL listener port on the Aurora cluster.
	DatabasePort = 3306

	// ContainerPort is the HTTP port exposed by the Bitnami WordPress image.
	ContainerPort = 8080

	// ContentMountPath is where the shared filesystem is mounted inside the
	// container. Bitnami keeps wp-content and uploads under this path.
	ContentMountPath = "/bitnami/wordpress"

	// OriginVerifyHeader is the custom header CloudFront attaches to every
	// origin request. The ALB listener rejects requests without it, which
	// keeps the origin unreachable except through the distribution.
	OriginVerifyHeader = "X-Origin-Verify"
)

// POSIX identity enforced by the filesystem access point. 1001 is the
// unprivileged user the Bitnami image runs as.
const (
	ContentPosixUID = "1001"
	ContentPosixGID = "1001"
)

// ParameterPrefix is the SSM Parameter Store namespace for published
// deployment configuration.
const ParameterPrefix = "/wordpress-hosting"
