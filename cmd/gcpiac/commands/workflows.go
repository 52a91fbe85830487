package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/gcpiac/internal/api/v1/client"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
)

func (c *cli) newInitCmd() *cobra.Command {
	var opts orchestrator.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Install credentials, write the variables file and generate the SSH keypair",
		Long: `Init prepares the environment: it copies the service account key to env/keys/.sa.json,
writes the project to env/env.tfvars, generates env/keys/.ansible_rsa and initializes the
provisioning engine. Steps whose output already exists are skipped unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.remote() {
				return fmt.Errorf("init runs against the local environment and cannot be used with --%s", flagServer)
			}
			rt, err := c.newRuntime(orchestrator.Options{})
			if err != nil {
				return err
			}
			defer rt.close()

			return c.report(rt.orchestrator.Init(cmd.Context(), opts))
		},
	}

	cmd.Flags().StringVarP(&opts.ServiceAccount, "serviceAccount", "s", "", "Service account key file")
	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Target project id (default: project_id of the key file)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "F", false, "Overwrite existing credentials, variables and keys")
	return cmd
}

func (c *cli) newApplyCmd() *cobra.Command {
	var (
		opts orchestrator.ApplyOptions
		test bool
	)

	cmd := &cobra.Command{
		Use:     "apply",
		Aliases: []string{"run"},
		Short:   "Provision the instance and configure it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.remote() {
				if test {
					return fmt.Errorf("--test checks the local environment and cannot be used with --%s", flagServer)
				}
				return c.remoteWorkflow(cmd.Context(), func(ctx context.Context, api *client.APIClient) (*client.WorkflowResult, error) {
					return api.Apply(ctx, opts.Force)
				})
			}

			rt, err := c.newRuntime(orchestrator.Options{})
			if err != nil {
				return err
			}
			defer rt.close()

			if test {
				return c.report(rt.orchestrator.Preflight(cmd.Context()))
			}
			return c.report(rt.orchestrator.Apply(cmd.Context(), opts))
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "F", false, "Recreate the workspace of the instance")
	cmd.Flags().BoolVarP(&test, "test", "t", false, "Only check that every input apply needs is present")
	return cmd
}

func (c *cli) newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the infrastructure and remove the workspaces of deleted instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.remote() {
				return c.remoteWorkflow(cmd.Context(), func(ctx context.Context, api *client.APIClient) (*client.WorkflowResult, error) {
					return api.Destroy(ctx)
				})
			}

			rt, err := c.newRuntime(orchestrator.Options{})
			if err != nil {
				return err
			}
			defer rt.close()

			return c.report(rt.orchestrator.Destroy(cmd.Context()))
		},
	}
}

// report turns a finished workflow into the command's error. The orchestrator has already
// shown the summary and any failure.
func (c *cli) report(res *orchestrator.Result) error {
	if res.OK() {
		return nil
	}
	if errors.Is(res.Err, orchestrator.ErrBusy) {
		c.display.Failure("%v", res.Err)
	}
	return fmt.Errorf("%w: %s failed at %s", ErrReported, res.Action, res.FailedAt)
}

func (c *cli) remoteWorkflow(ctx context.Context, run func(context.Context, *client.APIClient) (*client.WorkflowResult, error)) error {
	api, err := c.newClient()
	if err != nil {
		return err
	}
	res, err := run(ctx, api)
	if res != nil {
		// the server's display is not the client's
		for _, line := range res.Summary {
			c.display.Success("%s", line)
		}
		if !res.OK {
			c.display.Failure("%s failed at %s: %s", res.Action, res.FailedAt, res.Error)
			return fmt.Errorf("%w: %s failed at %s", ErrReported, res.Action, res.FailedAt)
		}
	}
	if err != nil {
		c.display.Failure("%v", err)
		return fmt.Errorf("%w: %v", ErrReported, err)
	}
	return nil
}
