package adminctl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type App struct {
	config *Config
	client *Client
	out    io.Writer
	reader *bufio.Reader

	// readPassword is a seam for testing term.ReadPassword.
	readPassword func() ([]byte, error)
}

func NewApp(c *Config) *App {
	return &App{
		config: c,
		client: NewClient(c.ServerEndpointAddr),
		out:    os.Stdout,
		reader: bufio.NewReader(os.Stdin),
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

const usage = `usage: adminctl [-a addr] <command>

commands:
  phase                    show the current phase switches
  phase open voting        open voting (closes applications)
  phase close voting       close voting
  phase open applications  open applications (closes voting)
  phase close applications close applications
  tally                    print the current results
  turnout                  print turnout figures
  audit [n]                print the last n audit entries
  export                   export the ledger and print a download link
`

// Run dispatches one subcommand. All commands except the read-only ones log
// in first, prompting for credentials.
func (a *App) Run(ctx context.Context, args []string) error {

	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	switch args[0] {
	case "phase":
		if len(args) == 1 {
			return a.showPhase(ctx)
		}
		if len(args) != 3 {
			return fmt.Errorf("usage: adminctl phase open|close voting|applications")
		}
		var open bool
		switch args[1] {
		case "open":
			open = true
		case "close":
			open = false
		default:
			return fmt.Errorf("unknown action %q", args[1])
		}
		return a.setPhase(ctx, args[2], open)
	case "tally":
		return a.showTally(ctx)
	case "turnout":
		return a.showTurnout(ctx)
	case "audit":
		limit := 0
		if len(args) > 1 {
			if _, err := fmt.Sscanf(args[1], "%d", &limit); err != nil {
				return fmt.Errorf("audit limit must be a number")
			}
		}
		return a.showAudit(ctx, limit)
	case "export":
		return a.exportLedger(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *App) login(ctx context.Context) error {

	fmt.Fprintln(a.out, "Enter admin name")
	name, err := a.reader.ReadString('\n')
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	fmt.Fprintln(a.out, "Enter password")
	password, err := a.readPassword()
	if err != nil {
		return err
	}

	return a.client.Login(ctx, name, string(password))
}

func (a *App) showPhase(ctx context.Context) error {
	ph, err := a.client.GetPhase(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "applications open: %v\nvoting open:       %v\n", ph.ApplicationsOpen, ph.VotingOpen)
	return nil
}

func (a *App) setPhase(ctx context.Context, phase string, open bool) error {
	if err := a.login(ctx); err != nil {
		return err
	}
	ph, err := a.client.SetPhase(ctx, phase, open)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "applications open: %v\nvoting open:       %v\n", ph.ApplicationsOpen, ph.VotingOpen)
	return nil
}

func (a *App) showTally(ctx context.Context) error {
	snap, err := a.client.Tally(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "total votes: %d (eligible voters: %d)\n", snap.TotalVotes, snap.EligibleVoters)
	for _, p := range snap.Positions {
		fmt.Fprintf(a.out, "\n%s (%d votes)\n", p.PositionName, p.TotalVotes)
		for _, c := range p.Candidates {
			marker := " "
			if p.Leader != nil && p.Leader.CandidateID == c.CandidateID {
				marker = "*"
			}
			fmt.Fprintf(a.out, "  %s %-30s %d\n", marker, c.FullName, c.Votes)
		}
	}
	return nil
}

func (a *App) showTurnout(ctx context.Context) error {
	if err := a.login(ctx); err != nil {
		return err
	}
	tn, err := a.client.Turnout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "cast votes: %d\neligible:   %d\n", tn.CastVotes, tn.EligibleVoters)
	return nil
}

func (a *App) showAudit(ctx context.Context, limit int) error {
	if err := a.login(ctx); err != nil {
		return err
	}
	entries, err := a.client.Audit(ctx, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %-15s %-15s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.AdminName, e.Action, string(e.Details))
	}
	return nil
}

func (a *App) exportLedger(ctx context.Context) error {
	if err := a.login(ctx); err != nil {
		return err
	}
	res, err := a.client.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d rows to %s\ndownload: %s\n", res.Rows, res.Key, res.DownloadURL)
	return nil
}
