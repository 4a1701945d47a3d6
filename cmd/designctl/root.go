package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DESIGNCTL"

// rootFlags holds the persistent settings shared by every command. Each one
// can also be supplied as DESIGNCTL_<FLAG> with dashes replaced by
// underscores; an explicit flag wins over the environment.
type rootFlags struct {
	v *viper.Viper
}

func (f *rootFlags) logLevel() string        { return f.v.GetString("log-level") }
func (f *rootFlags) logJSON() bool           { return f.v.GetBool("log-json") }
func (f *rootFlags) verbose() bool           { return f.v.GetBool("verbose") }
func (f *rootFlags) backend() string         { return f.v.GetString("backend") }
func (f *rootFlags) store() string           { return f.v.GetString("store") }
func (f *rootFlags) remoteURL() string       { return f.v.GetString("remote-url") }
func (f *rootFlags) token() string           { return f.v.GetString("token") }
func (f *rootFlags) namespace() string       { return f.v.GetString("namespace") }
func (f *rootFlags) cacheTTL() time.Duration { return f.v.GetDuration("cache-ttl") }
func (f *rootFlags) concurrency() int        { return f.v.GetInt("concurrency") }

func newRootCmd() *cobra.Command {
	flags := &rootFlags{v: viper.New()}
	app := &AppContext{flags: flags}

	cmd := &cobra.Command{
		Use:           "designctl",
		Short:         "designctl keeps design settings in sync between storage and their targets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "Write logs as JSON instead of console output")
	pf.BoolP("verbose", "v", false, "Enable verbose logging (same as --log-level=debug)")
	pf.String("backend", "", "Override the storage backend (file, memory, remote)")
	pf.String("store", "", "Override the file backend path")
	pf.String("remote-url", "", "Override the remote settings API base URL")
	pf.String("token", "", "Bearer token for the remote settings API")
	pf.String("namespace", "", "Override the document namespace")
	pf.Duration("cache-ttl", 0, "Override the remote read cache TTL")
	pf.Int("concurrency", 0, "Override the hydration read concurrency")

	flags.v.SetEnvPrefix(envPrefix)
	flags.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	flags.v.AutomaticEnv()
	_ = flags.v.BindPFlags(pf)

	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newGetCmd(app))
	cmd.AddCommand(newSetCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
