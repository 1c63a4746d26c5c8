package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/api/monitor"
	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers/serial"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/memory"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/trap"
	"github.com/GriffinCanCode/AgentOS/executive/internal/shared/id"
)

func main() {
	root := flag.String("root", "", "Root directory served by the file scheme")
	program := flag.String("program", "", "Script to run after boot (resource identifier)")
	background := flag.String("background", "", "Background image identifier")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dev := flag.Bool("dev", false, "Development mode")
	noMonitor := flag.Bool("no-monitor", false, "Disable the monitor API")
	noStdin := flag.Bool("no-stdin", false, "Do not feed stdin to the serial port")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Schemes.FileRoot = *root
	}
	if *program != "" {
		cfg.Kernel.Program = *program
	}
	if *background != "" {
		cfg.Kernel.BackgroundURL = *background
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if *noMonitor {
		cfg.Monitor.Enabled = false
	}

	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	defer logger.Sync()

	if err := run(cfg, logger, !*noStdin); err != nil {
		logger.Error("Kernel stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger, stdin bool) error {
	bootID := id.NewBootID()
	logger = logger.With(zap.String("boot_id", string(bootID)))
	logger.Info("Starting executive",
		zap.String("root", cfg.Schemes.FileRoot),
		zap.String("background", cfg.Kernel.BackgroundURL),
		zap.String("program", cfg.Kernel.Program),
	)

	arena, err := memory.NewArena(uintptr(cfg.Kernel.ArenaBase), uintptr(cfg.Kernel.ArenaSize))
	if err != nil {
		return fmt.Errorf("arena: %w", err)
	}

	sim := hal.NewSim()
	defer sim.Close()
	addDefaultDevices(sim)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("executive", logger.Logger)
	defer tracer.Close()

	k, err := kernel.New(sim,
		kernel.WithConsole(hal.NewConsole(os.Stdout, 0)),
		kernel.WithArena(arena),
		kernel.WithLogger(logger),
		kernel.WithMetrics(metrics),
		kernel.WithTracer(tracer),
		kernel.WithBooter(kernel.DefaultBooter(cfg)),
	)
	if err != nil {
		return fmt.Errorf("create kernel: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monErr := make(chan error, 1)
	if cfg.Monitor.Enabled {
		mon := monitor.NewServer(cfg.Monitor, k,
			monitor.WithRaiser(sim),
			monitor.WithMetrics(metrics),
			monitor.WithTracer(tracer),
			monitor.WithLogger(logger),
			monitor.WithDevelopment(cfg.Logging.Development),
		)
		go func() { monErr <- mon.Run(ctx) }()
	}

	stopTimer := sim.StartTimer(cfg.Kernel.TimerInterval)
	defer stopTimer()
	if stdin {
		go feedSerial(ctx, sim, cfg.Kernel.SerialPort, cfg.Kernel.SerialIRQ, os.Stdin)
	}

	halted := make(chan struct{})
	go func() {
		defer close(halted)
		sim.Deliver(ctx, uint32(trap.Boot))
	}()

	var runErr error
	monRunning := cfg.Monitor.Enabled
	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case runErr = <-monErr:
		monRunning = false
	}

	stop()
	sim.Close()
	<-halted
	if monRunning {
		if err := <-monErr; err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	if sim.Halted() {
		return errors.New("kernel panicked")
	}
	return nil
}

// addDefaultDevices populates the PCI bus the pci scheme enumerates.
func addDefaultDevices(sim *hal.Sim) {
	sim.AddPCIDevice(0, 0, 0, 0x8086, 0x1237, 0x06, 0x00, 0)  // host bridge
	sim.AddPCIDevice(0, 1, 0, 0x8086, 0x7000, 0x06, 0x01, 0)  // ISA bridge
	sim.AddPCIDevice(0, 2, 0, 0x1234, 0x1111, 0x03, 0x00, 0)  // VGA
	sim.AddPCIDevice(0, 3, 0, 0x8086, 0x100E, 0x02, 0x00, 11) // e1000
}

// feedSerial delivers each line read from r to the UART and raises its
// interrupt.
func feedSerial(ctx context.Context, sim *hal.Sim, port uint16, irq uint8, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		for _, b := range append(scanner.Bytes(), '\n') {
			sim.Feed(port+serial.RegData, b)
			sim.Feed(port+serial.RegLineStatus, serial.LineDataReady)
		}
		sim.Raise(irq)
	}
}
