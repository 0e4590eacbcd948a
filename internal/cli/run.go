package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/speller"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const dbName = "mudra.db"

// runCmd starts recognition.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start recognition",
	Long: `Open the camera and start recognizing. The live display is served on
the HTTP address; the tray menu controls pause, mute and clearing.`,
	RunE: runRecognition,
}

func init() {
	addRunFlags(runCmd)
}

// addRunFlags registers the recognition flags on cmd and binds them to the
// config keys they override.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address (default :8080)")
	f.Int("camera", 0, "camera device ID")
	f.Bool("tray", true, "show the system tray menu")
	f.String("web-dir", "", "directory with the display web page")
	f.String("data-dir", "", "directory for the database and config (default $HOME/.mudra)")

	_ = v.BindPFlag("addr", f.Lookup("addr"))
	_ = v.BindPFlag("camera_id", f.Lookup("camera"))
	_ = v.BindPFlag("tray", f.Lookup("tray"))
	_ = v.BindPFlag("web_dir", f.Lookup("web-dir"))
	_ = v.BindPFlag("data_dir", f.Lookup("data-dir"))
}

// runRecognition starts the camera pipeline, the HTTP server and, when
// enabled, the tray, and runs until interrupted or quit from the tray.
func runRecognition(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	st, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	hub := server.NewDisplayHub(logger)

	opts := []speller.Option{
		speller.WithDisplay(hub),
		speller.WithPreferences(st.Settings()),
		speller.WithLogger(logger),
		speller.WithMetrics(m),
	}
	if cfg.Speech.Command != "" {
		executor := speech.NewExecutor(cfg.Speech.Command, cfg.Speech.Args, cfg.Speech.Timeout())
		speaker := speech.NewCommandSpeaker(executor, logger, m)
		defer speaker.Close()
		opts = append(opts, speller.WithSpeaker(speaker))
	} else {
		logger.Warn("No speech command configured, words will not be spoken")
	}

	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New()
		opts = append(opts, speller.WithDisplay(tr))
	}

	ctrl := speller.NewController(speller.Config{
		Debounce:       cfg.Recognition.Debounce(),
		SpeechCooldown: cfg.Recognition.SpeechCooldown(),
	}, opts...)
	hub.Show(ctrl.Snapshot())

	log := logger.WithField("session", ctrl.SessionID())
	sessions := st.Sessions()
	if err := sessions.Start(ctrl.SessionID(), time.Now()); err != nil {
		log.WithError(err).Warn("Failed to record session start")
	}
	defer func() {
		if err := sessions.End(ctrl.SessionID(), time.Now(), ctrl.WordsCommitted()); err != nil {
			log.WithError(err).Warn("Failed to record session end")
		}
	}()

	pipeline := app.New(appConfig(cfg), ctrl, logger, m)

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.WithField("dir", webDir).Info("Serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		SessionID:  ctrl.SessionID(),
		Controller: ctrl,
		Display:    hub,
		Metrics:    m,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Addr)
	})
	g.Go(func() error {
		return pipeline.Run(gctx)
	})

	if tr != nil {
		// The tray loop must own the main thread.
		tr.Bind(ctrl)
		tr.OnQuit(cancel)
		tr.OnSettings(func() {
			if err := openBrowser(displayURL(cfg.Addr)); err != nil {
				log.WithError(err).Warn("Failed to open browser")
			}
		})
		go func() {
			<-gctx.Done()
			tr.Quit()
		}()
		tr.Run()
		cancel()
	}

	err = g.Wait()
	log.WithField("words", ctrl.WordsCommitted()).Info("Session ended")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// appConfig maps the file configuration onto the pipeline's.
func appConfig(cfg config.Config) app.Config {
	return app.Config{
		CameraID:        cfg.CameraID,
		MotionThreshold: cfg.MotionThreshold,
		PoseRate:        cfg.Recognition.PoseRate,
		MaxLag:          cfg.Recognition.MaxLag,
		Detector: detector.Config{
			MaxHands:        cfg.Detector.MaxHands,
			MinConfidence:   cfg.Detector.MinConfidence,
			MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		},
	}
}

// openStore opens the database in dataDir, creating the directory.
func openStore(dataDir string) (*store.Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, dbName))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// displayURL returns the local URL of the display page served on addr.
func displayURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	logrus.WithField("url", url).Debug("Opening browser")
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
