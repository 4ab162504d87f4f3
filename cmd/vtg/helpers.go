package main

import (
	"io"
	"net"
	"sort"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/capture"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/capture/livepcap"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/command"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/dhcpserver"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/dispatch"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/instruction"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/schedule"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/settings"
)

// newRunner wires the dispatcher and its collaborators from settings.
func newRunner(s *settings.Settings, file *instruction.File, prompter dispatch.Prompter, out io.Writer) *dispatch.Runner {
	commands := command.NewRunner(templates(s))
	sched := schedule.New()
	sched.Out = out

	dhcp := dispatch.NewDHCPControl(dhcpFactory(s.DHCP.Interface), out)
	d := dispatch.New(dispatch.Env{
		Commands:    commands,
		Scheduler:   sched,
		Prompter:    prompter,
		DHCP:        dhcp,
		FactoryInit: s.FactoryInit,
		Out:         out,
	})

	progress := dispatch.NewConsoleProgress()
	progress.W = out

	return &dispatch.Runner{
		File:       file,
		Dispatcher: d,
		Capture:    captureFactory(s.Capture, out),
		DHCP:       dhcp,
		Progress:   progress,
	}
}

// templates converts configured commands to runner templates in name order.
func templates(s *settings.Settings) []command.Template {
	names := make([]string, 0, len(s.Commands))
	for name := range s.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]command.Template, 0, len(names))
	for _, name := range names {
		c := s.Commands[name]
		out = append(out, command.Template{Name: name, Program: c.Program, Args: c.Args})
	}
	return out
}

func captureFactory(c settings.CaptureSettings, out io.Writer) dispatch.CaptureFactory {
	if c.Disabled {
		return nil
	}
	backend := livepcap.New()
	return func(testID string) dispatch.CaptureSession {
		return capture.NewSession(testID, capture.Config{
			Dir:         c.Dir,
			HostIP:      net.ParseIP(c.HostIP),
			Backend:     backend,
			MaxDuration: c.MaxDuration,
			Out:         out,
		})
	}
}

func dhcpConfig(offer net.IP) dhcpserver.Config {
	c := dhcpserver.DefaultConfig()
	if offer != nil {
		c = c.WithOffer(offer)
	}
	return c
}

func dhcpFactory(iface string) dispatch.DHCPFactory {
	return func(offer net.IP) (dispatch.DHCPServer, error) {
		srv, err := dhcpserver.New(iface, dhcpConfig(offer))
		if err != nil {
			return nil, err
		}
		return srv, nil
	}
}
