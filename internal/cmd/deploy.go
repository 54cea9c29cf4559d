package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgiraud/dockhand/internal/config"
	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/deploy"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/gitrepo"
	"github.com/mgiraud/dockhand/internal/nginx"
	"github.com/mgiraud/dockhand/internal/pipeline"
	"github.com/mgiraud/dockhand/internal/project"
	"github.com/mgiraud/dockhand/internal/provision"
	"github.com/mgiraud/dockhand/internal/ssh"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the deployment pipeline",
	Long: `Runs the deployment pipeline against the configured server:

  sync-repo            Bring the local working copy to the requested branch
  verify-project       Classify the project (Dockerfile vs compose file)
  ssh-connection-test  Pre-flight connectivity probe
  provision            Ensure docker, compose and nginx on the server
  deploy               Transfer the tree and start the application
  configure-proxy      Write and activate the nginx rule
  validate             Confirm runtime, container and HTTP health

With --cleanup, a disjoint teardown pipeline runs instead: the application
and its proxy rule are removed, nginx itself stays active.`,
	RunE: runDeploy,
}

var (
	cleanupMode bool
	workDir     string
	logFile     string
)

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().BoolVar(&cleanupMode, "cleanup", false, "Tear down the deployed application instead of deploying")
	deployCmd.Flags().StringVar(&workDir, "workdir", ".", "Directory holding local working copies")
	deployCmd.Flags().StringVar(&logFile, "log-file", "dockhand.log", "Local append-only run log (empty to disable)")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	spec := cfg.Spec()
	if IsInteractive() {
		if spec.RepoURL == "" {
			spec.RepoURL = PromptString("Repository URL")
		}
		if spec.Host == "" {
			spec.Host = PromptString("Server host")
		}
		if spec.User == "" {
			spec.User = PromptString("Server user")
		}
		if spec.Token == "" {
			spec.Token = PromptSecret("Repository access token")
		}
	}

	// Input validation happens exactly once, before any network or
	// filesystem side effect.
	if errs := config.ValidateSpec(spec); errs.HasErrors() {
		for _, e := range errs {
			PrintError("invalid input: %s", e.Error())
		}
		return errs
	}

	journal, err := pipeline.NewJournal(logFile, IsVerbose())
	if err != nil {
		return err
	}
	defer journal.Close()

	client := ssh.NewClient(spec.Host, spec.User, spec.SSHPort, spec.KeyPath)
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stages []pipeline.Stage
	if cleanupMode {
		PrintInfo("Running cleanup pipeline against %s", spec.Host)
		stages = cleanupStages(client, spec)
	} else {
		PrintInfo("Running deployment pipeline against %s", spec.Host)
		stages = forwardStages(client, spec, executor.NewLocal(workDir))
	}

	engine := pipeline.NewEngine(journal, stages...)
	records, runErr := engine.Run(ctx)

	if client.IsConnected() {
		if aerr := journal.AppendRemote(ctx, client); aerr != nil {
			PrintVerbose("could not append run log on server: %v", aerr)
		}
	}

	for _, rec := range records {
		for _, w := range rec.Outcome.Warnings {
			PrintWarning("%s: %s", rec.Stage, w)
		}
	}

	if runErr != nil {
		PrintError("%v", runErr)
		return runErr
	}

	if cleanupMode {
		PrintSuccess("Cleanup complete: no application instance or proxy rule remains")
	} else {
		PrintSuccess("Deployed: http://%s/ forwards to the application on port %d", spec.Host, spec.AppPort)
	}
	return nil
}

// forwardStages builds the deploy sequence. Stage results flow forward
// through the closed-over variables: the synchronized path feeds project
// verification, the detected kind feeds the deployer.
func forwardStages(client *ssh.Client, spec config.DeploymentSpec, local executor.Runner) []pipeline.Stage {
	syncer := gitrepo.NewSyncer(local, workDir)

	var (
		localPath string
		repoName  string
		kind      project.Kind
	)

	return []pipeline.Stage{
		{
			Name: "sync-repo",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
				defer cancel()
				path, err := syncer.Sync(ctx, spec)
				if err != nil {
					return pipeline.Failed(err.Error())
				}
				localPath = path
				repoName, _ = spec.RepoName()
				return pipeline.Succeeded()
			},
		},
		{
			Name: "verify-project",
			Run: func(ctx context.Context) pipeline.Outcome {
				kind = project.Detect(localPath)
				if kind == project.Unrecognized {
					return pipeline.Failedf("neither a Dockerfile nor a compose file found in %s", localPath)
				}
				return pipeline.Succeeded()
			},
		},
		connectStage(client),
		{
			Name: "provision",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.ProvisionTimeout)
				defer cancel()
				if err := provision.New(client, spec.User).Ensure(ctx); err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.Succeeded()
			},
		},
		{
			Name: "deploy",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.DeployTimeout)
				defer cancel()
				deployer := deploy.NewDeployer(client, client, spec.AppPort)
				warnings, err := deployer.Deploy(ctx, kind, localPath, repoName)
				if err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.SucceededWarn(warnings...)
			},
		},
		{
			Name: "configure-proxy",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
				defer cancel()
				if err := nginx.NewConfigurator(client, client).Configure(ctx, spec.AppPort); err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.Succeeded()
			},
		},
		{
			Name: "validate",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
				defer cancel()
				warnings, err := deploy.NewValidator(client).Validate(ctx)
				if err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.SucceededWarn(warnings...)
			},
		},
	}
}

// cleanupStages builds the disjoint teardown sequence.
func cleanupStages(client *ssh.Client, spec config.DeploymentSpec) []pipeline.Stage {
	return []pipeline.Stage{
		connectStage(client),
		{
			Name: "remove-app",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
				defer cancel()
				repoName, err := spec.RepoName()
				if err != nil {
					return pipeline.Failed(err.Error())
				}
				deployer := deploy.NewDeployer(client, client, spec.AppPort)
				if err := deployer.Destroy(ctx, repoName); err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.Succeeded()
			},
		},
		{
			Name: "remove-proxy-rule",
			Run: func(ctx context.Context) pipeline.Outcome {
				ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
				defer cancel()
				if err := nginx.NewConfigurator(client, client).Remove(ctx); err != nil {
					return pipeline.Failed(err.Error())
				}
				return pipeline.Succeeded()
			},
		},
	}
}

// connectStage probes connectivity with a short timeout and then opens the
// persistent connection every remote stage uses. A dial or auth failure
// here is a connectivity failure, never a command failure. When the
// configured key is rejected, the other keys in ~/.ssh are tried in
// preference order before giving up.
func connectStage(client *ssh.Client) pipeline.Stage {
	return pipeline.Stage{
		Name: "ssh-connection-test",
		Run: func(ctx context.Context) pipeline.Outcome {
			probeCtx, cancel := context.WithTimeout(ctx, constants.ProbeTimeout)
			defer cancel()
			if err := client.Probe(probeCtx); err != nil {
				if !tryAlternateKeys(client) {
					return pipeline.Failed(err.Error())
				}
			}
			if err := client.Connect(); err != nil {
				return pipeline.Failed(err.Error())
			}
			return pipeline.Succeeded()
		},
	}
}

// tryAlternateKeys attempts the other usable keys in ~/.ssh and points the
// client at the first one that authenticates. Encrypted keys and the key
// that already failed are skipped.
func tryAlternateKeys(client *ssh.Client) bool {
	keys, err := ssh.DiscoverKeys()
	if err != nil {
		return false
	}

	for _, key := range keys {
		if key.IsEncrypted {
			PrintVerbose("Skipping encrypted key: %s", key.Name)
			continue
		}
		if key.Path == client.KeyPath {
			continue
		}
		PrintVerbose("Trying %s...", key.Name)
		if ssh.TryKey(client.Host, client.User, client.Port, key.Path) == nil {
			PrintInfo("Authenticated with %s instead of the configured key", key.Name)
			client.KeyPath = key.Path
			return true
		}
	}
	return false
}
