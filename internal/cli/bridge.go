package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/buildshim/internal/app"
	"github.com/vk/buildshim/internal/ctxlog"
	"github.com/vk/buildshim/internal/installer"
	"gopkg.in/yaml.v3"
)

type bridgeOptions struct {
	agent              string
	namespace          string
	insecureSkipVerify bool
	timeout            time.Duration

	apiLevel      int
	packageName   string
	filesDir      string
	allowInstalls bool
}

// printLauncher writes the intent it would start instead of starting it.
type printLauncher struct {
	w io.Writer
}

func (l printLauncher) Launch(ctx context.Context, in installer.Intent) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	_, err = l.w.Write(data)
	return err
}

func newBridgeCommand(global *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Call the platform package installer",
		Long: `Calls the installer bridge. With --agent the calls go to a device agent over
socket.io; otherwise they are answered locally from the --api-level,
--package and --files-dir settings and the install intent is printed.`,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.agent, "agent", "", "socket.io URL of a device agent.")
	f.StringVar(&opts.namespace, "namespace", "/", "socket.io namespace of the agent.")
	f.BoolVar(&opts.insecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification for the agent.")
	f.DurationVar(&opts.timeout, "timeout", installer.DefaultTimeout, "Timeout for one agent call.")
	f.IntVar(&opts.apiLevel, "api-level", installer.InstallPermissionLevel, "Platform API level of the local bridge.")
	f.StringVar(&opts.packageName, "package", "", "Application package of the local bridge.")
	f.StringVar(&opts.filesDir, "files-dir", "", "Directory shared by the application's file provider.")
	f.BoolVar(&opts.allowInstalls, "allow-installs", false, "Whether the user allowed installs from the application.")

	call := func(cmd *cobra.Command, method string, args map[string]any) (any, error) {
		logger := app.NewLogger(global.logLevel, global.logFormat, stderr)
		ctx := ctxlog.WithLogger(cmd.Context(), logger)

		bridge, closeFn, err := opts.bridge(ctx, stdout)
		if err != nil {
			return nil, runtimeError(err)
		}
		defer closeFn()

		v, err := installer.NewDispatcher(bridge).Call(ctx, method, args)
		if err != nil {
			return nil, runtimeError(err)
		}
		return v, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "can-install",
			Short: "Report whether the application may install packages",
			Args:  positionalArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := call(cmd, installer.MethodCanInstall, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "install <PATH>",
			Short: "Hand a package archive to the platform installer",
			Args:  positionalArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := call(cmd, installer.MethodInstall, map[string]any{installer.ArgPath: args[0]})
				return err
			},
		},
	)
	return cmd
}

func (o *bridgeOptions) bridge(ctx context.Context, stdout io.Writer) (installer.Bridge, func(), error) {
	if o.agent == "" {
		allowed := o.allowInstalls
		return &installer.LocalBridge{
			APILevel:    o.apiLevel,
			PackageName: o.packageName,
			FilesDir:    o.filesDir,
			Permission:  func() bool { return allowed },
			Launcher:    printLauncher{w: stdout},
		}, func() {}, nil
	}

	remote, err := installer.Dial(ctx, o.agent, o.namespace, o.insecureSkipVerify)
	if err != nil {
		return nil, nil, err
	}
	remote.Timeout = o.timeout
	return remote, func() { remote.Close() }, nil
}
