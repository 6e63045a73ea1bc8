package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/quadkit/crazybridge/internal/config"
	"github.com/quadkit/crazybridge/internal/log"
	"github.com/quadkit/crazybridge/pkg/bridge"
	"github.com/quadkit/crazybridge/pkg/link"
	"github.com/quadkit/crazybridge/pkg/so3"
	"github.com/quadkit/crazybridge/pkg/web"
)

func main() {
	cfg := config.New()

	flag.StringVar(&cfg.MavName, "mav-name", config.EnvOr("MAV_NAME", ""), "vehicle name on the link (required)")
	flag.Float64Var(&cfg.KpYawRate, "kp-yaw-rate", cfg.KpYawRate, "yaw-rate proportional gain (required)")
	flag.Float64Var(&cfg.C1, "c1", cfg.C1, "thrust calibration c1 (required)")
	flag.Float64Var(&cfg.C2, "c2", cfg.C2, "thrust calibration c2 (required)")
	flag.Float64Var(&cfg.C3, "c3", cfg.C3, "thrust calibration c3 (required)")
	flag.Float64Var(&cfg.AngAccDGain, "ang-acc-d-gain", cfg.AngAccDGain, "angular acceleration D gain (required)")
	flag.DurationVar(&cfg.CmdTimeout, "cmd-timeout", cfg.CmdTimeout, "so3 command staleness bound")
	flag.BoolVar(&cfg.IsBrushless, "brushless", false, "vehicle needs the arm/disarm handshake")
	flag.BoolVar(&cfg.SendCTBRCmds, "ctbr", false, "send body-rate setpoints instead of attitude angles")
	flag.Float64Var(&cfg.ThrustPWMMin, "thrust-pwm-min", cfg.ThrustPWMMin, "thrust PWM floor")
	flag.Float64Var(&cfg.ThrustPWMMax, "thrust-pwm-max", cfg.ThrustPWMMax, "thrust PWM ceiling")
	flag.DurationVar(&cfg.RebootSettle, "reboot-settle", cfg.RebootSettle, "pause between reboot power-down and power-up")
	flag.StringVar(&cfg.ServerURL, "server-url", config.EnvOr("CF_SERVER_URL", cfg.ServerURL), "crazyflie-server websocket endpoint")
	flag.StringVar(&cfg.StatusPort, "status-port", cfg.StatusPort, "status server port (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	log.Info("thrust mapping", "c1", cfg.C1, "c2", cfg.C2, "c3", cfg.C3)
	log.Info("gains", "kp_yaw_rate", cfg.KpYawRate, "ang_acc_d_gain", cfg.AngAccDGain)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	client, err := link.Dial(ctx, cfg.ServerURL, cfg.MavName)
	if err != nil {
		log.Fatal("connecting to crazyflie-server", "error", err)
	}
	defer client.Close()

	b := bridge.New(bridge.Options{
		KpYawRate: cfg.KpYawRate,
		Thrust: so3.ThrustCurve{
			C1:     cfg.C1,
			C2:     cfg.C2,
			C3:     cfg.C3,
			PWMMax: cfg.ThrustPWMMax,
		},
		AngAccDGain:  cfg.AngAccDGain,
		CmdTimeout:   cfg.CmdTimeout,
		Brushless:    cfg.IsBrushless,
		SendCTBRCmds: cfg.SendCTBRCmds,
		ThrustPWMMin: cfg.ThrustPWMMin,
		ThrustPWMMax: cfg.ThrustPWMMax,
		RebootSettle: cfg.RebootSettle,
	}, client, client)

	client.OnCommand = b.HandleCommand
	client.OnOdometry = b.HandleOdometry

	var statusSrv *web.Server
	if cfg.StatusPort != "" {
		statusSrv = web.NewServer(cfg.StatusPort, b)
		go func() {
			if err := statusSrv.Start(); err != nil {
				log.Error("status server", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Run()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("link closed", "error", err)
		}
	}

	if statusSrv != nil {
		_ = statusSrv.Shutdown()
	}
}
