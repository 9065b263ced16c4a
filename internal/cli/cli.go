// Package cli implements the gopher-upload commands.
//
// The server binary runs the serve command; the client binary groups the
// upload, list, delete, discover and transform commands. Both share the
// charmbracelet/log logger created here and honour --verbose.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gopher-upload/internal/buildinfo"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// ServerCommand is the root command of the server binary.
func (c *CLI) ServerCommand() *cobra.Command {
	cmd := c.serveCommand(&serveOptions{})
	cmd.Use = "gopher-upload-web"
	cmd.Version = buildinfo.Version
	cmd.SetVersionTemplate(buildinfo.Template())
	c.addVerboseFlag(cmd)
	return cmd
}

// ClientCommand is the root command of the client binary.
func (c *CLI) ClientCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "gopher-upload",
		Short:        "Upload files to a gopher-upload server",
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())
	c.addVerboseFlag(root)

	opts := &clientOptions{}
	opts.register(root)

	root.AddCommand(c.uploadCommand(opts))
	root.AddCommand(c.listCommand(opts))
	root.AddCommand(c.deleteCommand(opts))
	root.AddCommand(c.discoverCommand(opts))
	root.AddCommand(c.transformCommand())
	return root
}

func (c *CLI) addVerboseFlag(cmd *cobra.Command) {
	var verbose bool
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	previous := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		if previous != nil {
			return previous(cmd, args)
		}
		return nil
	}
}
