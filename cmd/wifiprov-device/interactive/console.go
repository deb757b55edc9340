// Package interactive provides the companion console for wifiprov-device.
//
// The console plays the companion side of a provisioning session against
// the local manager: it opens a channel, runs the security handshake and
// sends station credentials. It also edits the networks visible to the
// simulated radio.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mash-protocol/wifiprov/pkg/manager"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

// Target is the provisioning manager the console drives.
type Target interface {
	State() manager.State
	ServiceName() string
	Security() security.Level
	Advertising() bool
	BTReleased() bool
	Connect() (*manager.Channel, error)
}

// Networks is the set of networks reachable by the simulated radio.
type Networks interface {
	SetNetwork(ssid, password string)
	RemoveNetwork(ssid string)
	Connected() bool
}

// Console handles interactive mode for wifiprov-device.
type Console struct {
	rl  *readline.Instance
	out io.Writer

	target Target
	nets   Networks

	companion *manager.Companion
	channel   *manager.Channel
}

// New creates a console reading from the terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "companion> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

// Stderr returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close releases the terminal. A pending Run returns.
func (c *Console) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	_ = c.rl.Close()
}

// Run starts the interactive command loop. Quitting the console calls cancel.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, target Target, nets Networks) {
	c.target = target
	c.nets = nets

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		if !c.execute(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one command line and reports whether the console should
// keep running.
func (c *Console) execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "s":
		c.cmdStatus()

	case "connect", "c":
		c.cmdConnect(args)

	case "send":
		c.cmdSend(args)

	case "disconnect", "d":
		c.cmdDisconnect()

	case "network", "net":
		c.cmdNetwork(args)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Companion Commands:
  Session:
    connect [pop]             - Open a channel (and handshake for security 1)
    send <ssid> [passphrase]  - Send station credentials
    disconnect                - Close the channel
    status                    - Show manager and radio status

  Simulated Radio:
    network add <ssid> [pass] - Make a network reachable
    network remove <ssid>     - Make a network unreachable

  Other:
    help                      - Show this help
    quit                      - Abort provisioning and exit`)
}

func (c *Console) cmdStatus() {
	fmt.Fprintf(c.out, "Manager:     %s\n", c.target.State())
	fmt.Fprintf(c.out, "Service:     %s\n", c.target.ServiceName())
	fmt.Fprintf(c.out, "Security:    %s\n", c.target.Security())
	fmt.Fprintf(c.out, "Advertising: %t\n", c.target.Advertising())
	fmt.Fprintf(c.out, "BT released: %t\n", c.target.BTReleased())
	fmt.Fprintf(c.out, "Channel:     %t\n", c.channel != nil)
	fmt.Fprintf(c.out, "Connected:   %t\n", c.nets.Connected())
}

func (c *Console) cmdConnect(args []string) {
	if c.channel != nil {
		fmt.Fprintln(c.out, "Already connected (use 'disconnect' first)")
		return
	}

	pop := ""
	if len(args) > 0 {
		pop = args[0]
	}

	level := c.target.Security()
	comp, err := manager.NewCompanion(level, pop)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	ch, err := c.target.Connect()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	if level == security.Security1 {
		if err := comp.Handshake(ch); err != nil {
			fmt.Fprintf(c.out, "Handshake failed: %v\n", err)
			ch.Close()
			return
		}
		fmt.Fprintln(c.out, "Handshake complete")
	}

	c.companion = comp
	c.channel = ch
	fmt.Fprintf(c.out, "Connected to %s\n", c.target.ServiceName())
}

func (c *Console) cmdSend(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: send <ssid> [passphrase]")
		return
	}
	if c.channel == nil {
		fmt.Fprintln(c.out, "Not connected (use 'connect' first)")
		return
	}

	ssid := args[0]
	pass := ""
	if len(args) > 1 {
		pass = args[1]
	}

	status, err := c.companion.SendConfig(c.channel, ssid, pass)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		if errors.Is(err, manager.ErrChannelClosed) {
			c.channel = nil
		}
		return
	}
	fmt.Fprintf(c.out, "Config %s\n", strings.ToLower(status.String()))
}

func (c *Console) cmdDisconnect() {
	if c.channel == nil {
		fmt.Fprintln(c.out, "Not connected")
		return
	}
	c.channel.Close()
	c.channel = nil
	c.companion = nil
	fmt.Fprintln(c.out, "Disconnected")
}

func (c *Console) cmdNetwork(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: network add <ssid> [pass] | network remove <ssid>")
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		pass := ""
		if len(args) > 2 {
			pass = args[2]
		}
		c.nets.SetNetwork(args[1], pass)
		fmt.Fprintf(c.out, "Network %s reachable\n", args[1])
	case "remove", "rm":
		c.nets.RemoveNetwork(args[1])
		fmt.Fprintf(c.out, "Network %s removed\n", args[1])
	default:
		fmt.Fprintf(c.out, "Unknown network command: %s\n", args[0])
	}
}
