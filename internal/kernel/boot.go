package kernel

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/display"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers/ps2"
	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers/serial"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/executive/internal/programs"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/file"
	httpscheme "github.com/GriffinCanCode/AgentOS/executive/internal/schemes/http"
	memscheme "github.com/GriffinCanCode/AgentOS/executive/internal/schemes/memory"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/pci"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/random"
)

// RootListing is requested for the file manager at boot.
const RootListing = "file:///"

// DefaultBooter brings up the standard session:
//
//  1. Register PS/2 and serial drivers, then the file, http, memory, pci
//     and random schemes, in that order.
//  2. Insert the file manager at item 0 and focus it.
//  3. Request the background image; a non-empty payload replaces the
//     display background.
//  4. Request the root listing for the file manager.
//  5. If a program is configured, fetch it and run it in a new focused
//     executor.
func DefaultBooter(cfg *config.Config) Booter {
	return func(ctx context.Context, k *Kernel) (Session, error) {
		log := k.logger
		s := session.New(
			display.New(cfg.Kernel.DisplayWidth, cfg.Kernel.DisplayHeight),
			session.WithLogger(log.Named("session")),
			session.WithMetrics(k.metrics),
		)

		modules := []module.Module{
			ps2.New(k.machine, log),
			serial.New(k.machine, cfg.Kernel.SerialPort, cfg.Kernel.SerialIRQ, log,
				serial.WithLineHandler(func(line string) { k.report("Serial: %s", line) })),
			file.New(cfg.Schemes.FileRoot, log),
			httpscheme.New(httpscheme.Config{
				Timeout:          cfg.Schemes.HTTPTimeout,
				Retries:          cfg.Schemes.HTTPRetries,
				RPS:              cfg.Schemes.HTTPRPS,
				Sanitize:         cfg.Schemes.HTTPSanitize,
				BreakerThreshold: 5,
				BreakerCooldown:  httpscheme.DefaultConfig().BreakerCooldown,
			}, log),
			memscheme.New(k.arena, k.LiveHandles, log),
			pci.New(k.machine, 0, log),
			random.New(cfg.Schemes.RandomSeed, log),
		}
		for _, m := range modules {
			if err := s.Modules().Register(m); err != nil {
				return nil, fmt.Errorf("register modules: %w", err)
			}
		}
		k.metrics.SetModules(s.Modules().Len())

		fm := programs.NewFileManager()
		if err := s.Insert(0, fm); err != nil {
			return nil, err
		}
		s.Focus(0)

		background, err := resource.Parse(cfg.Kernel.BackgroundURL)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		s.Request(ctx, background, func(_ capability.Object, resp resource.Response) {
			if s.Display().SetBackground(resp.Data) {
				log.Info("background loaded", zap.String("url", background.String()), zap.Int("bytes", resp.Len()))
			}
		})
		s.Request(ctx, resource.MustParse(RootListing), func(_ capability.Object, resp resource.Response) {
			fm.Show(resp)
		})

		if cfg.Kernel.Program != "" {
			program, err := resource.Parse(cfg.Kernel.Program)
			if err != nil {
				return nil, fmt.Errorf("program: %w", err)
			}
			k.launch(ctx, s, program)
		}
		return s, nil
	}
}

// launch fetches a script and runs it in a new focused executor. The
// executor's requests go through the system call path.
func (k *Kernel) launch(ctx context.Context, s *session.Session, program resource.URL) {
	s.Request(ctx, program, func(_ capability.Object, resp resource.Response) {
		exec := programs.NewExecutor(path.Base(schemes.Target(program)),
			programs.WithRequester(k),
			programs.WithConsole(func(line string) { k.report("%s", line) }),
		)
		index, err := s.Append(exec)
		if err != nil {
			k.logger.Error("launch failed", zap.Error(err))
			return
		}
		s.Focus(index)

		if err := exec.Run(ctx, resp.Text()); err != nil {
			k.report("%s", err)
		}
	})
}
