package deployer

// StackOutput represents a CloudFormation stack output.
type StackOutput struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	ExportName string `json:"export_name,omitempty"`
}

// BootstrapResult is the bootstrap Lambda's response payload.
type BootstrapResult struct {
	Database string `json:"database"`
	Created  bool   `json:"created"`
	Message  string `json:"message"`
}
