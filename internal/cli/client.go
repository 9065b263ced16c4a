package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gopher-upload/internal/client"
	"gopher-upload/internal/config"
	"gopher-upload/internal/discovery"
	"gopher-upload/internal/errors"
	"gopher-upload/internal/ui"
)

const serverEnv = "GOPHER_UPLOAD_SERVER"

var headerStyle = lipgloss.NewStyle().Bold(true)

type clientOptions struct {
	server        string
	discover      bool
	discoveryPort int
	insecure      bool
}

func (o *clientOptions) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.server, "server", "s", os.Getenv(serverEnv), "server base URL (env "+serverEnv+")")
	f.BoolVar(&o.discover, "discover", false, "find the server with a UDP broadcast")
	f.IntVar(&o.discoveryPort, "discovery-port", discovery.DefaultPort, "UDP discovery port")
	f.BoolVar(&o.insecure, "insecure", false, "accept self-signed TLS certificates")
}

// baseURL resolves the server URL from the flags, discovering it when asked.
func (o *clientOptions) baseURL(ctx context.Context) (string, error) {
	if !o.discover {
		if o.server != "" {
			return o.server, nil
		}
		return "http://localhost:" + strconv.Itoa(config.DefaultPort), nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	url, err := discovery.Find(ctx, o.discoveryPort)
	if err != nil {
		return "", err
	}
	loggerFromContext(ctx).Info("found server", "url", url)
	return url, nil
}

func (o *clientOptions) client(ctx context.Context) (*client.Client, error) {
	url, err := o.baseURL(ctx)
	if err != nil {
		return nil, err
	}
	var opts []client.Option
	if o.insecure {
		opts = append(opts, client.WithInsecureTLS())
	}
	return client.New(url, opts...), nil
}

func (c *CLI) uploadCommand(opts *clientOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cl, err := opts.client(ctx)
			if err != nil {
				return err
			}

			var progress client.ProgressFunc
			if !quiet {
				progress = func(name string, size int64, r io.Reader) io.Reader {
					return ui.NewProgressReader(name, size, r, cmd.ErrOrStderr())
				}
			}

			failed := 0
			for _, path := range args {
				p := newProgress(logger)
				info, err := cl.Upload(ctx, path, progress)
				if err != nil {
					logger.Error("upload failed", "file", path, "err", errors.UserMessage(err))
					failed++
					continue
				}
				p.done("uploaded", "file", info.Name, "size", info.Size)
				fmt.Fprintln(cmd.OutOrStdout(), info.URL)
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeUploadRejected, "%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not draw progress bars")
	return cmd
}

func (c *CLI) listCommand(opts *clientOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := opts.client(ctx)
			if err != nil {
				return err
			}
			files, err := cl.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(files)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerStyle.Render("NAME")+"\t"+headerStyle.Render("SIZE")+"\t"+headerStyle.Render("URL"))
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.URL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw descriptors as JSON")
	return cmd
}

func (c *CLI) deleteCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Delete uploaded files and their image versions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := opts.client(ctx)
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := cl.Delete(ctx, name); err != nil {
					return err
				}
				loggerFromContext(ctx).Info("deleted", "file", name)
			}
			return nil
		},
	}
}

func (c *CLI) discoverCommand(opts *clientOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find an upload server on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			url, err := discovery.Find(ctx, opts.discoveryPort)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for an answer")
	return cmd
}
