// Package router turns inbound chat messages into registry commands and
// renders every result, error included, back to plain text. It is the single
// boundary where errors become display strings; nothing below it talks to
// the chat.
package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmichela/dana/internal/calview"
	"github.com/tmichela/dana/internal/meeting"
	"github.com/tmichela/dana/pkg/logx"
)

const helpText = `commands:
  meeting add <name> --start "YYYY-MM-DD HH:MM" --participants a,b,c
          [--description "..."] [--url ...] [--end "YYYY-MM-DD HH:MM"]
          [--optional x,y] [--schedule "mon,fri/2 10:00"]...
  meeting remove <name>
  meeting list
  meeting info <name>
  meeting reschedule <name> --schedule "..." [--schedule "..."]...
  meeting add_participant <name> <user>[,<user>...] [--optional]
  meeting remove_participant <name> <user>[,<user>...]
  meeting pause <name>
  meeting resume <name>
  calendar [year] [month] [--start-sunday]
  help`

// Executor is the command surface the router dispatches to.
type Executor interface {
	Execute(ctx context.Context, cmd meeting.Command) (string, error)
}

type Router struct {
	reg Executor
	log logx.Logger
	loc *time.Location
	now func() time.Time
}

func New(reg Executor, log logx.Logger, loc *time.Location) *Router {
	if loc == nil {
		loc = time.Local
	}
	return &Router{
		reg: reg,
		log: log.With(logx.String("component", "router")),
		loc: loc,
		now: time.Now,
	}
}

// Handle processes one inbound message and returns the reply text. It never
// returns an error: everything, including panics below the command boundary,
// is rendered as text so the caller cannot crash on bad input.
func (r *Router) Handle(ctx context.Context, text string) (reply string) {
	reqID := uuid.NewString()
	log := r.log.With(logx.String("request_id", reqID))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("command panicked", logx.Any("panic", rec))
			reply = "internal error, please check the logs (request " + reqID + ")"
		}
	}()

	tokens, err := tokenize(text)
	if err != nil {
		return err.Error()
	}
	if len(tokens) == 0 {
		return helpText
	}

	log.Debug("command received", logx.String("command", tokens[0]))

	switch tokens[0] {
	case "help":
		return helpText
	case "calendar":
		return r.calendar(tokens[1:])
	case "meeting":
		return r.meeting(ctx, log, tokens[1:])
	default:
		return fmt.Sprintf("unknown command %q, try 'help'", tokens[0])
	}
}

func (r *Router) meeting(ctx context.Context, log logx.Logger, tokens []string) string {
	if len(tokens) == 0 {
		return "missing meeting subcommand, try 'help'"
	}
	args, flags, err := parseFlags(tokens[1:])
	if err != nil {
		return err.Error()
	}

	cmd, err := r.buildCommand(tokens[0], args, flags)
	if err != nil {
		return renderError(err)
	}

	result, err := r.reg.Execute(ctx, cmd)
	if err != nil {
		log.Warn("command failed", logx.String("subcommand", tokens[0]), logx.Err(err))
		return renderError(err)
	}
	return result
}

func (r *Router) buildCommand(sub string, args []string, flags map[string][]string) (meeting.Command, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	switch sub {
	case "add":
		return r.buildAdd(name, flags)
	case "remove":
		if name == "" {
			return nil, errors.New("usage: meeting remove <name>")
		}
		return meeting.RemoveCommand{Name: name}, nil
	case "list":
		return meeting.ListCommand{}, nil
	case "info":
		if name == "" {
			return nil, errors.New("usage: meeting info <name>")
		}
		return meeting.InfoCommand{Name: name}, nil
	case "edit":
		return meeting.EditCommand{Name: name}, nil
	case "reschedule":
		if name == "" {
			return nil, errors.New("usage: meeting reschedule <name> --schedule ...")
		}
		schedules, err := parseSchedules(flags["schedule"])
		if err != nil {
			return nil, err
		}
		return meeting.RescheduleCommand{Name: name, Schedules: schedules}, nil
	case "add_participant":
		if name == "" || len(args) < 2 {
			return nil, errors.New("usage: meeting add_participant <name> <users> [--optional]")
		}
		_, optional := flags["optional"]
		return meeting.AddParticipantCommand{
			Name:     name,
			Users:    splitList(args[1:]),
			Optional: optional,
		}, nil
	case "remove_participant":
		if name == "" || len(args) < 2 {
			return nil, errors.New("usage: meeting remove_participant <name> <users>")
		}
		return meeting.RemoveParticipantCommand{Name: name, Users: splitList(args[1:])}, nil
	case "pause":
		if name == "" {
			return nil, errors.New("usage: meeting pause <name>")
		}
		return meeting.PauseCommand{Name: name}, nil
	case "resume":
		if name == "" {
			return nil, errors.New("usage: meeting resume <name>")
		}
		return meeting.ResumeCommand{Name: name}, nil
	default:
		return nil, fmt.Errorf("unknown meeting subcommand %q, try 'help'", sub)
	}
}

func (r *Router) buildAdd(name string, flags map[string][]string) (meeting.Command, error) {
	if name == "" {
		return nil, errors.New("usage: meeting add <name> --start ... --participants ...")
	}
	startRaw := first(flags["start"])
	if startRaw == "" {
		return nil, errors.New("--start is required")
	}
	start, err := r.parseTime(startRaw)
	if err != nil {
		return nil, err
	}

	var end *time.Time
	if endRaw := first(flags["end"]); endRaw != "" {
		t, err := r.parseTime(endRaw)
		if err != nil {
			return nil, err
		}
		end = &t
	}

	schedules, err := parseSchedules(flags["schedule"])
	if err != nil {
		return nil, err
	}

	participants := splitList(flags["participants"])
	if len(participants) == 0 {
		return nil, errors.New("--participants is required")
	}

	return meeting.AddCommand{
		Name:         name,
		Description:  first(flags["description"]),
		URL:          first(flags["url"]),
		Start:        start,
		End:          end,
		Schedules:    schedules,
		Participants: participants,
		Optional:     splitList(flags["optional"]),
	}, nil
}

func (r *Router) calendar(tokens []string) string {
	args, flags, err := parseFlags(tokens)
	if err != nil {
		return err.Error()
	}
	_, startSunday := flags["start-sunday"]
	opts := calview.Options{StartSunday: startSunday}

	now := r.now().In(r.loc)
	switch len(args) {
	case 0:
		return codeBlock(calview.Month(now.Year(), now.Month(), opts))
	case 1:
		year, err := strconv.Atoi(args[0])
		if err != nil || year < 1 {
			return fmt.Sprintf("invalid year %q", args[0])
		}
		return codeBlock(calview.Year(year, opts))
	default:
		year, err := strconv.Atoi(args[0])
		if err != nil || year < 1 {
			return fmt.Sprintf("invalid year %q", args[0])
		}
		month, err := strconv.Atoi(args[1])
		if err != nil || month < 1 || month > 12 {
			return fmt.Sprintf("invalid month %q", args[1])
		}
		return codeBlock(calview.Month(year, time.Month(month), opts))
	}
}

// parseTime accepts "YYYY-MM-DD HH:MM" or a bare date (midnight) in the
// router's configured timezone.
func (r *Router) parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, r.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want \"YYYY-MM-DD HH:MM\")", raw)
}

// renderError is the one place registry errors become chat text.
func renderError(err error) string {
	var ve *meeting.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Msg
	case errors.Is(err, meeting.ErrNotFound),
		errors.Is(err, meeting.ErrAlreadyExists),
		errors.Is(err, meeting.ErrUnsupported):
		return err.Error()
	default:
		return "command failed: " + err.Error()
	}
}

func parseSchedules(raw []string) ([]meeting.Schedule, error) {
	out := make([]meeting.Schedule, 0, len(raw))
	for _, spec := range raw {
		days, tod, ok := strings.Cut(strings.TrimSpace(spec), " ")
		if !ok {
			return nil, fmt.Errorf("invalid schedule %q (want \"days[/n] HH:MM\")", spec)
		}
		s, err := meeting.ParseSchedule(days, tod)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// splitList flattens comma-separated values: ["a,b", "c"] -> [a b c].
func splitList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func codeBlock(s string) string {
	return "```\n" + s + "\n```"
}

// parseFlags splits tokens into positional arguments and --flag values.
// A flag followed by another flag (or by nothing) is boolean-style and
// recorded with an empty value.
func parseFlags(tokens []string) (args []string, flags map[string][]string, err error) {
	flags = map[string][]string{}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			args = append(args, tok)
			continue
		}
		key := strings.TrimPrefix(tok, "--")
		if key == "" {
			return nil, nil, errors.New("empty flag name")
		}
		if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
			flags[key] = append(flags[key], tokens[i+1])
			i++
		} else {
			flags[key] = append(flags[key], "")
		}
	}
	return args, flags, nil
}

// tokenize splits on whitespace with single- and double-quote grouping.
func tokenize(text string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inToken := false
	var quote rune

	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
