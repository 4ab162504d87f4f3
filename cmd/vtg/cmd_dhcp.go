package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rishi-bahadoor/validation-tests-generator/pkg/cli"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/dhcpserver"
	"github.com/rishi-bahadoor/validation-tests-generator/pkg/util"
)

func newDHCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dhcp",
		Short: "Embedded DHCP lease server",
	}

	var offer string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve leases in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ip net.IP
			if offer != "" {
				if !util.IsValidIPv4(offer) {
					return fmt.Errorf("--offer %q is not an IPv4 address", offer)
				}
				ip = net.ParseIP(offer).To4()
			}
			srv, err := dhcpserver.New(cfg.DHCP.Interface, dhcpConfig(ip))
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DHCP server is running. Press Ctrl-C to stop.")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			if err := srv.Stop(); err != nil {
				return err
			}

			t := cli.NewTable(out, "IP", "HWADDR", "EXPIRES").WithPrefix("  ")
			for _, l := range srv.Handler().Leases() {
				t.Row(l.IP.String(), l.HWAddr.String(), l.Expiry.Format("2006-01-02 15:04:05"))
			}
			t.Flush()
			return nil
		},
	}
	serveCmd.Flags().StringVar(&offer, "offer", "", "offer only this address")

	cmd.AddCommand(serveCmd)
	return cmd
}
