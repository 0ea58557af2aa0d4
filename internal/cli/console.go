package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/roster"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/rotation"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/substitution"
)

const consoleHelp = `Commands:
  start                       start the next set
  serve our|opponent          choose who serves first in the upcoming set
  lineup P1 P2 P3 P4 P5 P6 [libero=L]
                              declare the lineup of the upcoming set
  us [reason]                 point for us (ace, attack, block, service_error, opponent_error)
  them [reason]               point for the opponent
  rec VALUE [PLAYER]          rate a reception 0..4
  end                         close the current set at a deciding score
  sub OUT IN [OUT IN ...]     commit a batch of substitutions
  back PLAYER                 return PLAYER's open substitution
  undo | redo                 undo or redo the last action
  close                       dismiss the set summary
  state                       print the current state
  help                        show this help
  quit                        leave the session
Players may be given by number (7 or #7), id or name.`

// console interprets operator commands against a session.
type console struct {
	session *engine.Session
	out     io.Writer
	format  string
}

// ConsoleResult is what one command did, as printed in json format.
type ConsoleResult struct {
	Command string        `json:"command"`
	Status  string        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Code    string        `json:"code,omitempty"`
	Error   string        `json:"error,omitempty"`
	Events  []match.Event `json:"events,omitempty"`
	State   *match.State  `json:"state,omitempty"`
}

// loop reads commands until quit, EOF or ctx is cancelled.
func (c *console) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if quit := c.exec(line); quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line and reports whether the session should end.
func (c *console) exec(line string) bool {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	var (
		out engine.Outcome
		err error
	)
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
		return false
	case "state":
		c.printState()
		return false
	case "start":
		out, err = c.session.AddEvent(match.TypeSetStart, match.SetStart{})
	case "serve":
		out, err = c.serve(args)
	case "lineup":
		out, err = c.lineup(args)
	case "us", "them":
		out, err = c.point(name, args)
	case "rec":
		out, err = c.reception(args)
	case "end":
		out, err = c.endSet()
	case "sub":
		out, err = c.substitute(args)
	case "back":
		if len(args) != 1 {
			err = fmt.Errorf("usage: back PLAYER")
			break
		}
		var p match.Player
		if p, err = roster.Lookup(c.session.Roster(), args[0]); err == nil {
			out, err = c.session.QuickReturn(p.ID)
		}
	case "undo":
		out = c.session.UndoEvent()
	case "redo":
		out = c.session.RedoEvent()
	case "close":
		c.session.CloseSetSummaryModal()
		out = engine.Outcome{Status: engine.StatusApplied, State: c.session.State()}
	default:
		err = fmt.Errorf("unknown command %q (try help)", name)
	}

	c.report(name, out, err)
	return false
}

// upcomingSet is the set a lineup or service choice typed now applies to.
func upcomingSet(s match.State) int {
	if s.IsSetFinished {
		return s.CurrentSet + 1
	}
	return s.CurrentSet
}

func (c *console) serve(args []string) (engine.Outcome, error) {
	if len(args) != 1 {
		return engine.Outcome{}, fmt.Errorf("usage: serve our|opponent")
	}
	side := match.ServingSide(strings.ToLower(args[0]))
	return c.session.AddEvent(match.TypeSetServiceChoice, match.ServiceChoice{
		SetNumber:   upcomingSet(c.session.State()),
		ServingSide: side,
	})
}

func (c *console) lineup(args []string) (engine.Outcome, error) {
	var libero string
	var players []string
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "libero="); ok {
			libero = v
			continue
		}
		players = append(players, a)
	}
	if len(players) != 6 {
		return engine.Outcome{}, fmt.Errorf("usage: lineup P1 P2 P3 P4 P5 P6 [libero=L]")
	}

	r := c.session.Roster()
	payload := match.SetLineup{SetNumber: upcomingSet(c.session.State())}
	for i, q := range players {
		p, err := roster.Lookup(r, q)
		if err != nil {
			return engine.Outcome{}, err
		}
		payload.Positions = append(payload.Positions, match.RotationSlot{Position: i + 1, PlayerID: p.ID})
	}
	if libero != "" {
		p, err := roster.Lookup(r, libero)
		if err != nil {
			return engine.Outcome{}, err
		}
		payload.LiberoID = p.ID
	}
	return c.session.AddEvent(match.TypeSetLineup, payload)
}

func (c *console) point(name string, args []string) (engine.Outcome, error) {
	t := match.TypePointUs
	if name == "them" {
		t = match.TypePointOpponent
	}
	var p match.Point
	if len(args) > 0 {
		p.Reason = match.PointReason(strings.ToLower(args[0]))
	}
	return c.session.AddEvent(t, p)
}

func (c *console) reception(args []string) (engine.Outcome, error) {
	if len(args) < 1 || len(args) > 2 {
		return engine.Outcome{}, fmt.Errorf("usage: rec VALUE [PLAYER]")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return engine.Outcome{}, fmt.Errorf("rec: value must be a number: %w", err)
	}
	p := match.ReceptionEval{Value: v}
	if len(args) == 2 {
		player, err := roster.Lookup(c.session.Roster(), args[1])
		if err != nil {
			return engine.Outcome{}, err
		}
		p.PlayerID = player.ID
	}
	return c.session.AddEvent(match.TypeReceptionEval, p)
}

// endSet closes the set in play at its current score. The session refuses
// it unless that score decides the set, which only happens when a stored
// log stops at a deciding point without its SET_END.
func (c *console) endSet() (engine.Outcome, error) {
	s := c.session.State()
	winner, decided := match.SetWinner(s.CurrentSet, s.HomeScore, s.AwayScore)
	if !decided {
		winner = match.Home
		if s.AwayScore > s.HomeScore {
			winner = match.Away
		}
	}
	return c.session.AddEvent(match.TypeSetEnd, match.SetEnd{
		SetNumber: s.CurrentSet,
		Winner:    winner,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
	})
}

// substitute stages OUT IN pairs in a planner and commits them together.
func (c *console) substitute(args []string) (engine.Outcome, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return engine.Outcome{}, fmt.Errorf("usage: sub OUT IN [OUT IN ...]")
	}
	r := c.session.Roster()
	planner := c.session.NewPlanner()
	for i := 0; i < len(args); i += 2 {
		out, err := roster.Lookup(r, args[i])
		if err != nil {
			return engine.Outcome{}, err
		}
		in, err := roster.Lookup(r, args[i+1])
		if err != nil {
			return engine.Outcome{}, err
		}
		if err := planner.SelectOut(out.ID); err != nil {
			return engine.Outcome{}, err
		}
		if err := planner.SelectIn(in.ID); err != nil {
			return engine.Outcome{}, err
		}
		if _, err := planner.AddToBatch(); err != nil {
			return engine.Outcome{}, err
		}
	}
	return c.session.CommitSubstitutions(planner)
}

func (c *console) report(command string, out engine.Outcome, err error) {
	res := ConsoleResult{Command: command}
	switch {
	case err != nil:
		res.Status = "error"
		res.Error = err.Error()
		res.Code = errorCode(err)
	default:
		res.Status = string(out.Status)
		res.Reason = string(out.Reason)
		res.Events = out.Events
		state := c.session.State()
		res.State = &state
	}

	if c.format == "json" {
		_ = json.NewEncoder(c.out).Encode(res)
		return
	}

	switch res.Status {
	case "error":
		if res.Code != "" {
			fmt.Fprintf(c.out, "! %s [%s]\n", res.Error, res.Code)
		} else {
			fmt.Fprintf(c.out, "! %s\n", res.Error)
		}
		return
	case string(engine.StatusRejected):
		fmt.Fprintf(c.out, "- rejected: %s\n", res.Reason)
		return
	}
	for _, e := range out.Events {
		auto := ""
		if e.Auto {
			auto = " (auto)"
		}
		fmt.Fprintf(c.out, "+ %s%s %s\n", e.Type, auto, payloadJSON(e.Payload))
	}
	c.printScore()
}

func (c *console) printScore() {
	s := c.session.State()
	names := c.session.Names()
	fmt.Fprintf(c.out, "Set %d  %s %d - %d %s  (sets %d-%d)  serve: %s\n",
		s.CurrentSet, names.Home, s.HomeScore, s.AwayScore, names.Away,
		s.SetsWonHome, s.SetsWonAway, s.ServingSide)
	if s.SummaryOpen && s.LastFinishedSetSummary != nil {
		sum := s.LastFinishedSetSummary
		fmt.Fprintf(c.out, "Set %d won by %s %d-%d (longest runs %d/%d)\n",
			sum.SetNumber, sum.Winner, sum.HomeScore, sum.AwayScore, sum.LongestRunHome, sum.LongestRunAway)
	}
	if s.IsMatchFinished {
		fmt.Fprintln(c.out, "Match finished")
	}
}

func (c *console) printState() {
	s := c.session.State()
	if c.format == "json" {
		_ = json.NewEncoder(c.out).Encode(ConsoleResult{Command: "state", Status: "ok", State: &s})
		return
	}
	c.printScore()
	if len(s.Rotation) > 0 {
		fmt.Fprintf(c.out, "Rotation: %s", strings.Join(s.Rotation, " "))
		if s.LiberoID != "" {
			fmt.Fprintf(c.out, "  libero: %s", s.LiberoID)
		}
		fmt.Fprintln(c.out)
		if view := rotation.CourtView(s, c.session.Roster().RoleOf); view.Replaced != "" {
			fmt.Fprintf(c.out, "Court: %s  (%s for %s at %d)\n",
				strings.Join(view.Slots, " "), s.LiberoID, view.Replaced, view.Position)
		}
	}
	fmt.Fprintf(c.out, "Substitutions: %d used, %d left\n", s.Substitutions.Count, s.Substitutions.Remaining())
}

func payloadJSON(p match.Payload) string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(data)
}

// errorCode returns the validator code of a refused substitution, else the
// session error code, else "".
func errorCode(err error) string {
	var ve *substitution.ValidationError
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return ""
}
