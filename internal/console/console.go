// Package console is the interactive text menu around a single engine.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
)

var (
	yesAnswers    = []string{"y", "yes", "yes!"}
	cancelAnswers = []string{"cancel", "abort"}
	exitInputs    = []string{"e", "exit", "quit", "dc"}
)

type Console struct {
	eng    *engine.Engine
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger

	pickStyle  lipgloss.Style
	errorStyle lipgloss.Style
	titleStyle lipgloss.Style
}

func New(eng *engine.Engine, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := lipgloss.NewRenderer(out)
	return &Console{
		eng:        eng,
		in:         bufio.NewScanner(in),
		out:        out,
		logger:     logger,
		pickStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		errorStyle: r.NewStyle().Foreground(lipgloss.Color("#FFAA00")),
		titleStyle: r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	}
}

// Run prints the menu and handles input until the user exits, the input
// ends, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	c.printMenu()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := c.prompt(fmt.Sprintf("Current team is %s. Make your choice: ", c.eng.ActiveTeam().Label()))
		if err != nil {
			return ignoreEOF(err)
		}

		done, err := c.handle(strings.ToLower(choice))
		if err != nil {
			return ignoreEOF(err)
		}
		if done {
			return nil
		}
	}
}

func (c *Console) handle(choice string) (bool, error) {
	switch {
	case choice == "" || choice == "0" || choice == "1":
		c.pick(choice)
	case choice == "m" || choice == "mode":
		c.apply(engine.Command{Type: engine.CmdToggleStrategy})
	case slices.Contains(exitInputs, choice):
		return c.exit()
	case choice == "exclude" || choice == "remove":
		return false, c.excludeMenu()
	case choice == "clear":
		return false, c.clearMenu()
	case choice == "menu":
		c.printMenu()
	default:
		fmt.Fprintln(c.out, "\nYou made an invalid selection. Try again.")
		c.printMenu()
	}
	return false, nil
}

func (c *Console) pick(choice string) {
	cmd := engine.Command{Type: engine.CmdPick}
	switch choice {
	case "0":
		cmd.Team = engine.TeamKiller
	case "1":
		cmd.Team = engine.TeamSurvivor
	}
	c.apply(cmd)
}

func (c *Console) apply(cmd engine.Command) {
	events, err := engine.Apply(c.eng, cmd)
	if err != nil {
		c.logger.Info("command refused", zap.String("command", string(cmd.Type)), zap.Error(err))
		fmt.Fprintln(c.out, c.errorStyle.Render(err.Error()))
		return
	}
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtTeamSwitched:
			fmt.Fprintln(c.out, "\nSwitching team...")
		case engine.EvtCharacterPicked:
			c.logger.Debug("picked", zap.String("team", string(ev.Team)), zap.String("name", ev.Name))
			fmt.Fprintln(c.out, c.pickStyle.Render(FormatPick(engine.Pick{Team: ev.Team, Name: ev.Name}))+"\n")
		case engine.EvtStrategyChanged:
			fmt.Fprintf(c.out, "\nSwitching mode to %s...\n", ev.Strategy)
		case engine.EvtCharacterExcluded:
			fmt.Fprintf(c.out, "%s was successfully removed from %ss.\n\n", ev.Name, ev.Team)
		case engine.EvtCharacterIncluded:
			fmt.Fprintf(c.out, "%s has been cleared from the %s excluded list.\n", ev.Name, ev.Team)
		case engine.EvtExclusionsCleared:
			fmt.Fprintf(c.out, "All characters have been cleared from the %s excluded list.\n", ev.Team)
		}
	}
}

// FormatPick renders a pick for display. Killers are titled ("The Nurse").
func FormatPick(p engine.Pick) string {
	name := p.Name
	if p.Team == engine.TeamKiller {
		name = "The " + name
	}
	return fmt.Sprintf("Play %s: %s!", p.Team.Label(), name)
}

func (c *Console) exit() (bool, error) {
	answer, err := c.prompt("Are you sure you want to DC? ")
	if err != nil {
		return false, err
	}
	if isYes(answer) {
		fmt.Fprintln(c.out, "\nSee you in the fog...")
		return true, nil
	}
	fmt.Fprintln(c.out, "GGEZ")
	fmt.Fprintln(c.out)
	return false, nil
}

func (c *Console) excludeMenu() error {
	team := c.eng.ActiveTeam()
	for {
		eligible := c.eng.Eligible(team)
		if len(eligible) <= engine.MinEligible {
			fmt.Fprintln(c.out, "No more characters can be excluded. Please clear some characters from the excluded list first.")
			return nil
		}
		c.list(team, eligible, "included")

		choice, err := c.prompt("\nEnter the number of the character to remove them or 'cancel' to go back: ")
		if err != nil {
			return err
		}
		if slices.Contains(cancelAnswers, strings.ToLower(choice)) {
			fmt.Fprintln(c.out, "Returning to the main menu...")
			fmt.Fprintln(c.out)
			return nil
		}
		index, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(c.out, "Invalid input. Please enter a valid number or 'cancel'.")
			continue
		}
		if index < 1 || index > len(eligible) {
			fmt.Fprintln(c.out, "Invalid number selection. Please enter a number that corresponds to one of the listed characters.")
			continue
		}
		name := eligible[index-1]
		answer, err := c.prompt(fmt.Sprintf("Are you really sure you want to remove %s from %ss? ", name, team))
		if err != nil {
			return err
		}
		if isYes(answer) {
			c.apply(engine.Command{Type: engine.CmdExclude, Team: team, Name: name})
		}
	}
}

func (c *Console) clearMenu() error {
	team := c.eng.ActiveTeam()
	for {
		excluded := c.eng.Excluded(team)
		if len(excluded) == 0 {
			fmt.Fprintf(c.out, "No %s characters are currently excluded.\n\n", team)
			return nil
		}
		c.list(team, excluded, "excluded")

		choice, err := c.prompt("\nEnter the number of the character to clear from this list.\n" +
			"Enter 'all' to remove all characters from this list.\n" +
			"Enter 'cancel' to go back: ")
		if err != nil {
			return err
		}
		choice = strings.ToLower(choice)

		switch {
		case choice == "all":
			answer, err := c.prompt(fmt.Sprintf("Are you sure you want to remove all characters from the %s excluded list? ", team))
			if err != nil {
				return err
			}
			if isYes(answer) {
				c.apply(engine.Command{Type: engine.CmdClearExclusions, Team: team})
			} else {
				fmt.Fprintln(c.out, "Clear exclusion operation canceled.")
			}
			return nil
		case slices.Contains(cancelAnswers, choice):
			fmt.Fprintln(c.out, "Returning to the main menu...")
			fmt.Fprintln(c.out)
			return nil
		}

		index, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(c.out, "Invalid choice. Please enter a valid number, 'all', or 'cancel'.")
			continue
		}
		if index < 1 || index > len(excluded) {
			fmt.Fprintln(c.out, "Invalid number selection. Please enter a number that corresponds to one of the listed characters.")
			continue
		}
		name := excluded[index-1]
		answer, err := c.prompt(fmt.Sprintf("Are you sure you want to clear %s from the %s excluded list? ", name, team))
		if err != nil {
			return err
		}
		if isYes(answer) {
			c.apply(engine.Command{Type: engine.CmdInclude, Team: team, Name: name})
		}
	}
}

func (c *Console) list(team engine.Team, names []string, description string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.titleStyle.Render(fmt.Sprintf("Current %s %s characters:", description, team)))
	for i, name := range names {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, name)
	}
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.out, "Press Enter to select a random character to play.")
	fmt.Fprintln(c.out, "Enter 1 to switch to survivors.")
	fmt.Fprintln(c.out, "Enter 0 to switch to killers.")
	fmt.Fprintln(c.out, "Enter M to switch selection modes.")
	fmt.Fprintln(c.out, "Enter E to exit the program.")
	fmt.Fprintln(c.out, "Enter 'remove' to exclude a character from current team.")
	fmt.Fprintln(c.out, "Enter 'clear' to stop excluding a character from current team.")
	fmt.Fprintln(c.out)
}

func (c *Console) prompt(text string) (string, error) {
	fmt.Fprint(c.out, text)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func isYes(answer string) bool {
	return slices.Contains(yesAnswers, strings.ToLower(strings.TrimSpace(answer)))
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
