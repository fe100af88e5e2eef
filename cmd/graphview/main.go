package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"graphview/pkg/backend"
	"graphview/pkg/centrality"
	"graphview/pkg/cluster"
	"graphview/pkg/config"
	"graphview/pkg/engine"
	"graphview/pkg/logging"
	"graphview/pkg/model"
	"graphview/pkg/output"
	"graphview/pkg/prefs"
	"graphview/pkg/pubsub"
	"graphview/pkg/render"
	"graphview/pkg/session"
	"graphview/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("graphview", pflag.ExitOnError)
	f.Int("port", 8080, "Port for the web server")
	f.Bool("serve", false, "Start the web server instead of printing a report")
	f.String("backend", "", "Graph backend base URL")
	f.String("feed", "", "Delta feed URL (defaults to <backend>/deltas)")
	f.String("snapshot", "", "Path to a local graph snapshot file")
	f.Bool("watch", false, "Reload the snapshot when the file changes")
	f.Bool("open", true, "Open the browser after the server starts")
	f.Int("quiet_ms", 50, "Delta coalescing quiet period in milliseconds")
	f.Int("max_wait_ms", 500, "Maximum delta coalescing delay in milliseconds")
	f.String("color_by", "type", "Point color source: type or cluster")
	f.String("size_by", "degree", "Metric driving point size")
	f.String("verbosity", "", "Log level: debug, info, warn, error")
	f.Bool("json_logs", false, "Emit logs as JSON")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	if cfg.Serve {
		if err := serve(cfg); err != nil {
			logging.Fatal("server failed", "error", err)
		}
		return
	}

	if err := report(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Verbosity {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
		return
	}
	logging.SetLevel(level)
}

func renderConfig(cfg *config.Config) render.Config {
	rc := render.DefaultConfig()
	if cfg.ColorBy != "" {
		rc.ColorBy = cfg.ColorBy
	}
	if cfg.SizeBy != "" {
		rc.SizeBy = cfg.SizeBy
	}
	return rc
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := pubsub.NewSSEPublisher()
	defer publisher.Close()

	var client *backend.Client
	if cfg.BackendURL != "" {
		client = backend.NewClient(cfg.BackendURL)
	}

	eng := engine.NewRemote(publisher)
	sess := session.New(eng, publisher, session.Options{
		QuietPeriod: time.Duration(cfg.QuietMs) * time.Millisecond,
		MaxWait:     time.Duration(cfg.MaxWaitMs) * time.Millisecond,
		Render:      renderConfig(cfg),
		Client:      client,
	})
	defer sess.Close()

	prefsStore, err := prefs.NewStore()
	if err != nil {
		logging.Warn("preferences unavailable", "error", err)
	}

	server := web.NewServer(sess, publisher, prefsStore)

	// Initial data load runs in the background so the server is
	// reachable immediately
	go loadInitial(ctx, cfg, client, sess)

	if cfg.FeedURL != "" || cfg.BackendURL != "" {
		feedURL := cfg.FeedURL
		if feedURL == "" {
			feedURL = backend.FeedURL(cfg.BackendURL)
		}
		stream := backend.NewStream(feedURL, sess, sess.PublishStatus)
		go runFeed(ctx, stream)
	}

	if cfg.OpenBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
		}()
	}

	return server.Start(ctx, cfg.Port)
}

func loadInitial(ctx context.Context, cfg *config.Config, client *backend.Client, sess *session.Session) {
	sess.PublishStatus("loading", "loading graph")

	switch {
	case client != nil:
		g, err := client.LoadGraph(ctx)
		if err != nil {
			logging.Error("initial load failed", "backend", cfg.BackendURL, "error", err)
			sess.PublishStatus("error", fmt.Sprintf("backend load failed: %v", err))
			return
		}
		sess.Replace(g)

	case cfg.Snapshot != "":
		if cfg.Watch {
			// The file source does the initial load and every reload
			source, err := backend.NewFileSource(cfg.Snapshot, sess.Replace)
			if err == nil {
				err = source.Start(ctx)
			}
			if err != nil {
				logging.Error("snapshot watch failed", "path", cfg.Snapshot, "error", err)
				sess.PublishStatus("error", fmt.Sprintf("snapshot load failed: %v", err))
			}
			return
		}

		g, err := backend.LoadSnapshot(cfg.Snapshot)
		if err != nil {
			logging.Error("snapshot load failed", "path", cfg.Snapshot, "error", err)
			sess.PublishStatus("error", fmt.Sprintf("snapshot load failed: %v", err))
			return
		}
		sess.Replace(g)

	default:
		sess.Replace(model.Graph{})
		sess.PublishStatus("ready", "empty graph, waiting for deltas")
	}
}

// runFeed keeps the delta feed alive, reconnecting with backoff
func runFeed(ctx context.Context, stream *backend.Stream) {
	backoff := time.Second
	for {
		err := stream.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logging.Warn("delta feed disconnected", "error", err, "retry", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func report(cfg *config.Config) error {
	var g model.Graph
	var source string
	var err error

	switch {
	case cfg.BackendURL != "":
		source = cfg.BackendURL
		client := backend.NewClient(cfg.BackendURL)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g, err = client.LoadGraph(ctx)
	case cfg.Snapshot != "":
		source = cfg.Snapshot
		g, err = backend.LoadSnapshot(cfg.Snapshot)
	default:
		return fmt.Errorf("report mode needs --backend or --snapshot")
	}
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	enrich(&g)
	output.PrintGraphReport(source, g.Nodes, g.Links, 10)
	return nil
}

// enrich computes the metrics the report prints
func enrich(g *model.Graph) {
	for _, alg := range []string{centrality.AlgorithmDegree, centrality.AlgorithmPageRank} {
		scores, err := centrality.Compute(alg, g.Nodes, g.Links, centrality.DefaultOptions())
		if err != nil {
			logging.Warn("metric unavailable", "algorithm", alg, "error", err)
			continue
		}
		for i := range g.Nodes {
			switch alg {
			case centrality.AlgorithmDegree:
				g.Nodes[i].Metrics.Degree = scores[g.Nodes[i].ID]
			case centrality.AlgorithmPageRank:
				g.Nodes[i].Metrics.PageRank = scores[g.Nodes[i].ID]
			}
		}
	}

	assignments, err := cluster.Assign(cluster.AlgorithmComponents, g.Nodes, g.Links)
	if err != nil {
		logging.Warn("clustering unavailable", "error", err)
		return
	}
	for i := range g.Nodes {
		if c, ok := assignments[g.Nodes[i].ID]; ok {
			v := c
			g.Nodes[i].Cluster = &v
		}
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
