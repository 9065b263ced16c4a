package cli

import (
	"github.com/spf13/cobra"

	"gopher-upload/internal/cache"
	"gopher-upload/internal/config"
	"gopher-upload/internal/server"
)

type serveOptions struct {
	configPath    string
	host          string
	port          int
	publicDir     string
	uploadDir     string
	tls           bool
	cacheBackend  string
	redisURL      string
	discoveryPort int
}

func (c *CLI) serveCommand(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the upload server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return c.runServe(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (.toml, .yaml)")
	f.StringVar(&opts.host, "host", "", "listen host")
	f.IntVarP(&opts.port, "port", "p", config.DefaultPort, "listen port")
	f.StringVar(&opts.publicDir, "public", config.DefaultPublicDir, "directory served as the site root")
	f.StringVar(&opts.uploadDir, "upload-dir", config.DefaultUploadDir, "directory uploads are stored in")
	f.BoolVar(&opts.tls, "tls", false, "serve HTTPS with a self-signed certificate")
	f.StringVar(&opts.cacheBackend, "cache", "none", "listing cache: none, memory or redis")
	f.StringVar(&opts.redisURL, "redis-url", "", "redis URL for --cache=redis")
	f.IntVar(&opts.discoveryPort, "discovery-port", config.DefaultDiscovery, "UDP discovery port, 0 disables")
	return cmd
}

// load reads the config file and applies the flags the user set
// explicitly, so file values survive flag defaults.
func (o *serveOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = o.host
	}
	if f.Changed("port") {
		cfg.Port = o.port
	}
	if f.Changed("public") {
		cfg.PublicDir = o.publicDir
	}
	if f.Changed("upload-dir") {
		cfg.Upload.Dir = o.uploadDir
	}
	if f.Changed("tls") {
		cfg.TLS = o.tls
	}
	if f.Changed("cache") {
		cfg.Cache.Backend = o.cacheBackend
	}
	if f.Changed("redis-url") {
		cfg.Cache.RedisURL = o.redisURL
	}
	if f.Changed("discovery-port") {
		cfg.DiscoveryPort = o.discoveryPort
	}
	return cfg, cfg.Validate()
}

func (c *CLI) runServe(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	store, err := cache.Open(ctx, cfg.Cache.Backend, cfg.Cache.RedisURL)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return err
	}
	logger.Debug("configuration", "upload_dir", cfg.Upload.Dir, "public_dir", cfg.PublicDir, "cache", cfg.Cache.Backend)
	return srv.Run(ctx)
}
