// PathSense daemon: camera-driven navigation guidance with a web dashboard
// and spoken commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pathsense/go-pathsense/internal/config"
	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/announce"
	"github.com/pathsense/go-pathsense/pkg/camera"
	"github.com/pathsense/go-pathsense/pkg/identify"
	"github.com/pathsense/go-pathsense/pkg/nav"
	"github.com/pathsense/go-pathsense/pkg/occupancy"
	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/perception"
	"github.com/pathsense/go-pathsense/pkg/spatial"
	"github.com/pathsense/go-pathsense/pkg/web"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing config.yaml")
	device := flag.Int("camera", 0, "Camera device index")
	orientMode := flag.String("orientation", "rotation", "Orientation source: rotation, accelmag")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mode := orientation.ModeRotationVector
	if *orientMode == "accelmag" {
		mode = orientation.ModeAccelMag
	}
	estimator := orientation.New(mode)

	detector, segmenter := buildPerception(cfg)
	defer detector.Close()
	defer segmenter.Close()

	camCfg := camera.DefaultConfig()
	camCfg.Device = *device
	cam, err := camera.Open(camCfg)
	if err != nil {
		log.Error("camera open failed", "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	engineCfg := nav.DefaultConfig()
	if cfg.Engine.MemoryInterval > 0 {
		engineCfg.MemoryInterval = cfg.Engine.MemoryInterval
	}
	engine := nav.New(engineCfg, estimator)

	var announcer *announce.Announcer
	if cfg.Announcer.URL != "" {
		announcer = announce.New(cfg.Announcer.URL)
		if err := announcer.Connect(ctx); err != nil {
			log.Warn("announcer unavailable, continuing silent", "error", err)
			announcer = nil
		} else {
			defer announcer.Close()
		}
	}

	server := web.NewServer(cfg.Server.Port)
	server.OnNavigate = func(target string) (string, error) {
		if announcer != nil {
			announcer.Reset()
		}
		return engine.Start(target), nil
	}
	server.OnStop = engine.Stop
	server.Objects = func() []spatial.Object { return engine.Memory().Snapshot() }
	server.OnOrientation = func(ev web.OrientationEvent) error {
		switch ev.Type {
		case "rotation":
			estimator.UpdateRotationVector(ev.X, ev.Y, ev.Z, ev.W)
		case "accel":
			estimator.UpdateAccel(ev.X, ev.Y, ev.Z)
		case "mag":
			estimator.UpdateMag(ev.X, ev.Y, ev.Z)
		default:
			return fmt.Errorf("unknown sensor type %q", ev.Type)
		}
		return nil
	}
	if cfg.Identify.URL != "" {
		client := identify.NewClient(cfg.Identify.URL)
		server.OnIdentify = client.Identify
	}
	server.StartAsync()
	defer server.Shutdown()

	runner := &nav.Runner{
		Engine:    engine,
		Source:    cam,
		Detector:  detector,
		Segmenter: segmenter,
		Interval:  cfg.Engine.CycleInterval,
		OnResult: func(res nav.Result) {
			server.PublishResult(res, engine.Target(), estimator.Current())
			if announcer != nil {
				announcer.Announce(res.Command)
			}
		},
	}

	if cfg.Engine.Target != "" {
		engine.Start(cfg.Engine.Target)
	}

	log.Info("pathsense running", "port", cfg.Server.Port, "orientation", *orientMode)
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("runner failed", "error", err)
		os.Exit(1)
	}
}

// buildPerception loads the DNN backends, falling back to mocks when no
// model is configured so the daemon can run without weights during
// development.
func buildPerception(cfg *config.Config) (perception.Detector, perception.Segmenter) {
	var detector perception.Detector
	var segmenter perception.Segmenter

	if cfg.Detector.ModelPath != "" {
		d, err := perception.NewDNNDetector(perception.DNNConfig{
			ModelPath:        cfg.Detector.ModelPath,
			ConfigPath:       cfg.Detector.ConfigPath,
			LabelsPath:       cfg.Detector.LabelsPath,
			ConfidenceThresh: cfg.Detector.Confidence,
		})
		if err != nil {
			log.Error("detector load failed", "error", err)
			os.Exit(1)
		}
		detector = d
	} else {
		log.Warn("no detector model configured, using mock detector")
		detector = perception.NewMockDetector()
	}

	if cfg.Segmenter.ModelPath != "" {
		s, err := perception.NewDNNSegmenter(perception.SegmenterConfig{
			ModelPath: cfg.Segmenter.ModelPath,
		})
		if err != nil {
			log.Error("segmenter load failed", "error", err)
			os.Exit(1)
		}
		segmenter = s
	} else {
		log.Warn("no segmenter model configured, assuming open floor")
		mask := occupancy.NewMask(1280, 720)
		mask.Fill(1, 1)
		segmenter = &perception.MockSegmenter{Mask: mask}
	}

	return detector, segmenter
}
