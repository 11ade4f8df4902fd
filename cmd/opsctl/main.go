// Command opsctl operates a deployed WordPress hosting stack: it reads the
// stack outputs, invalidates the edge cache, and runs the database
// bootstrap.
package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wordpress-hosting-infra/internal/deployer"
)

const defaultStackName = "WordPressHosting"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		stackName string
		verbose   bool
	)

	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operate the deployed WordPress hosting stack",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&stackName, "stack", defaultStackName, "CloudFormation stack name")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newDeployer := func() (*deployer.Deployer, error) {
		log, err := newLogger(verbose)
		if err != nil {
			return nil, err
		}
		sess, err := session.NewSession()
		if err != nil {
			return nil, fmt.Errorf("creating AWS session: %w", err)
		}
		return deployer.New(
			cloudformation.New(sess),
			cloudfront.New(sess),
			lambda.New(sess),
			log,
		), nil
	}

	root.AddCommand(newOutputsCommand(&stackName, newDeployer))
	root.AddCommand(newInvalidateCommand(&stackName, newDeployer))
	root.AddCommand(newDBInitCommand(&stackName, newDeployer))

	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

func newOutputsCommand(stackName *string, newDeployer func() (*deployer.Deployer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "Print the stack outputs as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeployer()
			if err != nil {
				return err
			}
			outputs, err := d.StackOutputs(cmd.Context(), *stackName)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(outputs, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding outputs: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}

func newInvalidateCommand(stackName *string, newDeployer func() (*deployer.Deployer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate [path ...]",
		Short: "Invalidate edge cache paths (defaults to everything)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeployer()
			if err != nil {
				return err
			}
			distributionID, err := resolveOutput(cmd, d, *stackName, "DistributionID")
			if err != nil {
				return err
			}
			id, err := d.Invalidate(cmd.Context(), distributionID, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidation %s submitted\n", id)
			return nil
		},
	}
}

func newDBInitCommand(stackName *string, newDeployer func() (*deployer.Deployer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "db-init",
		Short: "Run the database bootstrap Lambda",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeployer()
			if err != nil {
				return err
			}
			functionARN, err := resolveOutput(cmd, d, *stackName, "BootstrapFunctionARN")
			if err != nil {
				return err
			}
			result, err := d.BootstrapDatabase(cmd.Context(), functionARN)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (created=%v)\n", result.Message, result.Created)
			return nil
		},
	}
}

// resolveOutput finds a single named output on the stack so callers do not
// have to copy identifiers around by hand.
func resolveOutput(cmd *cobra.Command, d *deployer.Deployer, stackName, key string) (string, error) {
	outputs, err := d.StackOutputs(cmd.Context(), stackName)
	if err != nil {
		return "", err
	}
	for _, out := range outputs {
		if out.Key == key {
			return out.Value, nil
		}
	}
	return "", fmt.Errorf("stack %s has no output %s", stackName, key)
}
