package meeting

import "time"

// Command is the closed set of registry operations. Keeping the variants as
// a sealed interface (rather than a name string) lets Execute dispatch with
// an exhaustive type switch.
type Command interface{ isCommand() }

// AddCommand creates a new meeting. Participants and Optional hold display
// names; they are resolved to stable directory ids at execution time, and
// only the ids are stored, so later renames never break the registration.
type AddCommand struct {
	Name         string
	Description  string
	URL          string
	Start        time.Time
	End          *time.Time
	Schedules    []Schedule
	Participants []string
	Optional     []string
}

// RemoveCommand deletes a meeting and cancels all of its scheduled jobs.
type RemoveCommand struct {
	Name string
}

// ListCommand enumerates all meetings with their status.
type ListCommand struct{}

// InfoCommand renders one meeting's full info block.
type InfoCommand struct {
	Name string
}

// EditCommand is reserved. Executing it returns ErrUnsupported.
type EditCommand struct {
	Name string
}

// RescheduleCommand replaces a meeting's schedule list and re-arms its jobs.
type RescheduleCommand struct {
	Name      string
	Schedules []Schedule
}

// AddParticipantCommand adds users to a meeting. It is a no-op if any of the
// requested users already participates in any role.
type AddParticipantCommand struct {
	Name     string
	Users    []string
	Optional bool
}

// RemoveParticipantCommand removes matching required participants and their
// weight share. Unmatched names are ignored.
type RemoveParticipantCommand struct {
	Name  string
	Users []string
}

// PauseCommand suppresses future firings without deleting the meeting.
type PauseCommand struct {
	Name string
}

// ResumeCommand re-enables a paused meeting and re-arms its jobs.
type ResumeCommand struct {
	Name string
}

func (AddCommand) isCommand()               {}
func (RemoveCommand) isCommand()            {}
func (ListCommand) isCommand()              {}
func (InfoCommand) isCommand()              {}
func (EditCommand) isCommand()              {}
func (RescheduleCommand) isCommand()        {}
func (AddParticipantCommand) isCommand()    {}
func (RemoveParticipantCommand) isCommand() {}
func (PauseCommand) isCommand()             {}
func (ResumeCommand) isCommand()            {}
