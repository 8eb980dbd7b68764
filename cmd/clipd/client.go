package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipd/internal/ipc"
	"go.klb.dev/clipd/internal/rpc"
)

const callTimeout = 10 * time.Second

// clientCmd builds a sub-command that talks to the daemon. run receives a
// connected client and a context bounded by timeout (zero means no bound).
func clientCmd(use, short string, args cobra.PositionalArgs, timeout time.Duration,
	run func(ctx context.Context, c *rpc.Client, v *viper.Viper, args []string) error,
) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    args,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(v.GetString("socket"))
			if err != nil {
				return err
			}
			defer c.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return run(ctx, c, v, args)
		},
	}
	addClientFlags(cmd)
	return cmd
}

// connect dials the daemon, failing fast when nothing listens on path.
func connect(path string) (*rpc.Client, error) {
	if !ipc.IsRunning(path) {
		return nil, fmt.Errorf("clipd daemon not running (no socket at %s); start it with \"clipd daemon\"", path)
	}
	return rpc.Dial(path)
}
