package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gnb_rrc/internal/common/logger"
	"gnb_rrc/internal/f1"
	"gnb_rrc/internal/rrcnr"
	"gnb_rrc/pkg/config"
)

// schedConfigLogger stands in for the MAC scheduler, which runs in the DU:
// the cell configuration handed down at bring-up is logged here.
type schedConfigLogger struct {
	*logger.Logger
}

func (s *schedConfigLogger) ConfigureCell(cfg rrcnr.CellSchedConfig) {
	s.Info("Cell configured: %d PRBs, MIB %d B, %d SI messages",
		cfg.NofPrb, cfg.MibLen, len(cfg.SiMessageLens))
}

// pdcpConfigLogger stands in for PDCP, which is not colocated with the
// control plane in this deployment.
type pdcpConfigLogger struct {
	*logger.Logger
}

func (p *pdcpConfigLogger) AddUser(rnti uint16) {
	p.Info("PDCP user rnti=0x%x", rnti)
}

func (p *pdcpConfigLogger) AddBearer(rnti uint16, lcid uint32, cfg rrcnr.PdcpConfig) {
	p.Info("PDCP bearer rnti=0x%x lcid=%d (drb=%t sn=%d)", rnti, lcid, cfg.IsDrb, cfg.SnLen)
}

func main() {
	configPath := flag.String("config", "config/gnb.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	logger.ParseLogLevel(cfg.Log.Level)

	log.Info().Msg("Starting gNB RRC engine")

	engine := rrcnr.NewEngine()
	link := f1.NewLink(cfg, engine)

	mac := &schedConfigLogger{Logger: logger.InitLogger("info", map[string]string{"mod": "mac"})}
	pdcp := &pdcpConfigLogger{Logger: logger.InitLogger("info", map[string]string{"mod": "pdcp"})}

	if err := engine.Init(cfg, mac, link, pdcp); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RRC engine")
	}

	go func() {
		if err := link.Serve(); err != nil {
			log.Error().Err(err).Msg("F1 link stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Info().Msg("gNB RRC engine is running. Press Ctrl+C to stop.")
	<-sigChan

	log.Info().Msg("Shutting down")
	engine.Stop()
	link.Close()
}
